package tmdb

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"strings"

	"github.com/listenupapp/agetags-server/internal/agerules"
)

// Limiter keys and metric labels for the two endpoint families.
const (
	endpointTV    = "tv_content_ratings"
	endpointMovie = "movie_release_dates"
)

// TVCertifications returns the raw content rating per region for a TMDB TV id.
// Endpoint: /tv/{id}/content_ratings.
//
// Entries with a blank region or rating are skipped. Region codes are uppercased;
// ratings are returned as received.
func (c *Client) TVCertifications(ctx context.Context, tvID int) (agerules.TVRatings, error) {
	if tvID <= 0 {
		return nil, wrapError("tvCertifications", tvID, ErrInvalidID)
	}

	body, err := c.doRequest(ctx, endpointTV, fmt.Sprintf("/tv/%d/content_ratings", tvID))
	if err != nil {
		return nil, wrapError("tvCertifications", tvID, err)
	}

	var resp rawContentRatings
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("tvCertifications", tvID, fmt.Errorf("parse response: %w", err))
	}

	return parseContentRatings(resp), nil
}

// MovieCertifications returns, per region, the certified releases of a TMDB movie id
// in the order TMDB lists them.
// Endpoint: /movie/{id}/release_dates.
//
// Releases with a blank certification are skipped; a region whose releases are all
// uncertified is omitted.
func (c *Client) MovieCertifications(ctx context.Context, movieID int) (agerules.MovieRatings, error) {
	if movieID <= 0 {
		return nil, wrapError("movieCertifications", movieID, ErrInvalidID)
	}

	body, err := c.doRequest(ctx, endpointMovie, fmt.Sprintf("/movie/%d/release_dates", movieID))
	if err != nil {
		return nil, wrapError("movieCertifications", movieID, err)
	}

	var resp rawReleaseDates
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("movieCertifications", movieID, fmt.Errorf("parse response: %w", err))
	}

	return parseReleaseDates(resp), nil
}

// Certifications fetches the data matching kind and wraps it in agerules.Ratings.
func (c *Client) Certifications(ctx context.Context, kind agerules.Kind, id int) (agerules.Ratings, error) {
	switch kind {
	case agerules.KindTV:
		tv, err := c.TVCertifications(ctx, id)
		return agerules.Ratings{TV: tv}, err
	case agerules.KindMovie:
		movie, err := c.MovieCertifications(ctx, id)
		return agerules.Ratings{Movie: movie}, err
	default:
		return agerules.Ratings{}, wrapError("certifications", id, fmt.Errorf("unsupported kind %q", kind))
	}
}

// parseContentRatings converts the raw TV response. A later duplicate region wins.
func parseContentRatings(resp rawContentRatings) agerules.TVRatings {
	ratings := make(agerules.TVRatings, len(resp.Results))
	for _, r := range resp.Results {
		region := strings.ToUpper(strings.TrimSpace(r.Region))
		if region == "" || strings.TrimSpace(r.Rating) == "" {
			continue
		}
		ratings[region] = r.Rating
	}
	return ratings
}

// parseReleaseDates converts the raw movie response, keeping release order.
func parseReleaseDates(resp rawReleaseDates) agerules.MovieRatings {
	ratings := make(agerules.MovieRatings, len(resp.Results))
	for _, r := range resp.Results {
		region := strings.ToUpper(strings.TrimSpace(r.Region))
		if region == "" {
			continue
		}
		for _, rd := range r.ReleaseDates {
			if strings.TrimSpace(rd.Certification) == "" {
				continue
			}
			ratings[region] = append(ratings[region], agerules.Release{
				Type:          agerules.ReleaseType(rd.Type),
				Certification: rd.Certification,
			})
		}
	}
	return ratings
}
