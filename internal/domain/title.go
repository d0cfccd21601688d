package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/listenupapp/agetags-server/internal/agerules"
)

// Title is a catalog entry: a movie or TV series linked to its TMDB record.
// Tags are free-form; the age tag is the one carrying the configured prefix.
type Title struct {
	ID     string        `json:"id"`
	Kind   agerules.Kind `json:"kind"`
	TMDBID int           `json:"tmdb_id"`
	Name   string        `json:"name"`
	Tags   []string      `json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AgeTagFor returns the tag that encodes age, or "" when age is unknown.
func AgeTagFor(prefix string, age agerules.Age) string {
	if !age.Known() {
		return ""
	}
	return prefix + age.String()
}

// AgeTags returns the title's tags that carry prefix, compared case-insensitively.
func (t *Title) AgeTags(prefix string) []string {
	var out []string
	for _, tag := range t.Tags {
		if hasTagPrefix(tag, prefix) {
			out = append(out, tag)
		}
	}
	return out
}

// PlanAgeTag computes the tag list the title should carry for age.
// Every prefixed tag is replaced by the single desired one, or dropped when age is unknown.
// changed is false when the tags already match.
func (t *Title) PlanAgeTag(prefix string, age agerules.Age) (tags []string, changed bool) {
	want := AgeTagFor(prefix, age)
	current := t.AgeTags(prefix)

	if want == "" && len(current) == 0 {
		return t.Tags, false
	}
	if want != "" && len(current) == 1 && current[0] == want {
		return t.Tags, false
	}

	tags = slices.DeleteFunc(slices.Clone(t.Tags), func(tag string) bool {
		return hasTagPrefix(tag, prefix)
	})
	if want != "" {
		tags = append(tags, want)
	}
	return tags, true
}

// AddTag appends tag unless it is already present.
func (t *Title) AddTag(tag string) {
	if slices.Contains(t.Tags, tag) {
		return
	}
	t.Tags = append(t.Tags, tag)
}

func hasTagPrefix(tag, prefix string) bool {
	if prefix == "" {
		return false
	}
	return len(tag) >= len(prefix) && strings.EqualFold(tag[:len(prefix)], prefix)
}
