package services

import (
	"context"
	"time"

	"astrapilot/internal/models"

	"github.com/jackc/pgx/v5"
)

const seoColumns = `id, user_id, url, score, recommendations, created_at`

func scanSeoAnalysis(row pgx.Row) (models.SeoAnalysis, error) {
	var a models.SeoAnalysis
	err := row.Scan(&a.ID, &a.UserID, &a.URL, &a.Score, &a.Recommendations, &a.CreatedAt)
	return a, err
}

func (s *Service) SaveSeoAnalysis(ctx context.Context, userID int64, url string, score int, recommendations []string) (models.SeoAnalysis, error) {
	if userID == 0 || url == "" {
		return models.SeoAnalysis{}, ErrInvalidRequest
	}
	if recommendations == nil {
		recommendations = []string{}
	}
	return scanSeoAnalysis(s.pool.QueryRow(ctx, `
		INSERT INTO seo_analyses (user_id, url, score, recommendations)
		VALUES ($1, $2, $3, $4)
		RETURNING `+seoColumns,
		userID, url, score, recommendations))
}

func (s *Service) ListSeoAnalyses(ctx context.Context, userID int64, limit int) ([]models.SeoAnalysis, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+seoColumns+`
		FROM seo_analyses
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var analyses []models.SeoAnalysis
	for rows.Next() {
		a, err := scanSeoAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// CountSeoAnalysesSince feeds the license manager's monthly usage stats.
func (s *Service) CountSeoAnalysesSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM seo_analyses
		WHERE user_id = $1 AND created_at >= $2`, userID, since).Scan(&count)
	return count, err
}

func (s *Service) AddSocialProfile(ctx context.Context, userID int64, platform, profileURL string) (models.SocialProfile, error) {
	if userID == 0 || platform == "" || profileURL == "" {
		return models.SocialProfile{}, ErrInvalidRequest
	}
	var p models.SocialProfile
	err := s.pool.QueryRow(ctx, `
		INSERT INTO social_profiles (user_id, platform, profile_url)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, platform, profile_url, created_at`,
		userID, platform, profileURL,
	).Scan(&p.ID, &p.UserID, &p.Platform, &p.ProfileURL, &p.CreatedAt)
	return p, err
}

func (s *Service) ListSocialProfiles(ctx context.Context, userID int64) ([]models.SocialProfile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, platform, profile_url, created_at
		FROM social_profiles
		WHERE user_id = $1
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []models.SocialProfile
	for rows.Next() {
		var p models.SocialProfile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Platform, &p.ProfileURL, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
