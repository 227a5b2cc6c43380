package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/freshmart/review-service/internal/domain"
	"github.com/freshmart/review-service/internal/repository"
	"github.com/freshmart/review-service/pkg/database"
	apperrors "github.com/freshmart/review-service/pkg/errors"
)

const reviewColumns = `id, product_id, customer_id, order_id, customer_name, customer_email,
		rating, title, comment, status, spam_score, is_verified_purchase,
		helpful, not_helpful, created_at, moderated_by, moderated_at,
		approved_at, rejected_at, rejection_reason`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a review and assigns its generated ID and creation timestamp.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (product_id, customer_id, order_id, customer_name, customer_email,
			rating, title, comment, status, spam_score, is_verified_purchase, helpful, not_helpful,
			moderated_by, rejection_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		review.ProductID,
		review.CustomerID,
		review.OrderID,
		review.CustomerName,
		review.CustomerEmail,
		review.Rating,
		review.Title,
		review.Comment,
		review.Status,
		review.SpamScore,
		review.IsVerifiedPurchase,
		review.Helpful,
		review.NotHelpful,
		review.ModeratedBy,
		review.RejectionReason,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation on (customer_id, product_id)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.Conflict("customer has already reviewed this product")
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id int64) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return review, nil
}

// GetByCustomerAndProduct retrieves a customer's review of a product in any status.
func (r *ReviewRepository) GetByCustomerAndProduct(ctx context.Context, customerID, productID int64) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE customer_id = $1 AND product_id = $2`, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, customerID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return review, nil
}

// ListByProduct returns reviews for a product matching the filter with the total count.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64, filter repository.ProductReviewFilter) ([]domain.Review, int, error) {
	conditions := []string{"product_id = $1"}
	args := []any{productID}
	argIndex := 2

	if filter.Status != "" && filter.Status != domain.StatusAll {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM reviews
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		reviewColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)

	return r.queryReviews(ctx, query, args...)
}

// ListPending returns pending reviews ordered by spam score (highest first),
// then newest first, with the total count.
func (r *ReviewRepository) ListPending(ctx context.Context, filter repository.PendingReviewFilter) ([]domain.Review, int, error) {
	conditions := []string{"status = 'pending'"}
	var args []any
	argIndex := 1

	if filter.SpamLevel != "" {
		// Levels are floors, not bands: "medium" includes everything at or
		// above the medium threshold so moderators never lose sight of the
		// worst offenders.
		min, ok := domain.SpamLevelThreshold(filter.SpamLevel)
		if !ok {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown spam level %q", filter.SpamLevel))
		}
		conditions = append(conditions, fmt.Sprintf("spam_score >= $%d", argIndex))
		args = append(args, min)
		argIndex++
	}

	if filter.ProductID != 0 {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argIndex))
		args = append(args, filter.ProductID)
		argIndex++
	}

	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.DateFrom)
		argIndex++
	}

	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.DateTo)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM reviews
		WHERE %s
		ORDER BY spam_score DESC, created_at DESC
		LIMIT $%d OFFSET $%d`,
		reviewColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)

	return r.queryReviews(ctx, query, args...)
}

// UpdateStatus applies a moderation decision to a pending review. The UPDATE
// is conditional on status = 'pending' so concurrent moderators cannot both
// win; the loser sees zero rows and gets ErrConflict (or ErrNotFound when the
// review never existed).
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id int64, update repository.ModerationUpdate) (*domain.Review, error) {
	query := fmt.Sprintf(`
		UPDATE reviews
		SET status = $1,
			moderated_by = $2,
			moderated_at = $3,
			approved_at = CASE WHEN $1 = 'approved' THEN $3 ELSE approved_at END,
			rejected_at = CASE WHEN $1 = 'rejected' THEN $3 ELSE rejected_at END,
			rejection_reason = $4
		WHERE id = $5 AND status = 'pending'
		RETURNING %s`, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query,
		update.Status,
		update.ModeratedBy,
		update.ModeratedAt,
		update.RejectionReason,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMissingUpdate(ctx, id)
		}
		return nil, fmt.Errorf("update review status: %w", err)
	}

	return review, nil
}

// IncrementHelpfulness adds one vote to an approved review.
func (r *ReviewRepository) IncrementHelpfulness(ctx context.Context, id int64, helpful bool) (*domain.Review, error) {
	column := "not_helpful"
	if helpful {
		column = "helpful"
	}

	query := fmt.Sprintf(`
		UPDATE reviews
		SET %s = %s + 1
		WHERE id = $1 AND status = 'approved'
		RETURNING %s`, column, column, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMissingUpdate(ctx, id)
		}
		return nil, fmt.Errorf("increment helpfulness: %w", err)
	}

	return review, nil
}

// classifyMissingUpdate distinguishes a review that does not exist from one in
// a state the conditional UPDATE refused to touch.
func (r *ReviewRepository) classifyMissingUpdate(ctx context.Context, id int64) error {
	var status string
	err := r.pool.QueryRow(ctx, "SELECT status FROM reviews WHERE id = $1", id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("review", id)
		}
		return fmt.Errorf("check review status: %w", err)
	}
	return apperrors.Conflict(fmt.Sprintf("review is %s", status))
}

// GetStats aggregates review statistics for one product (productID > 0) or
// across all products (productID == 0). Average and distribution cover
// approved reviews only; helpful votes are summed across all statuses.
func (r *ReviewRepository) GetStats(ctx context.Context, productID int64) (*domain.ReviewStats, error) {
	where := ""
	var args []any
	if productID != 0 {
		where = "WHERE product_id = $1"
		args = append(args, productID)
	}

	query := fmt.Sprintf(`
		SELECT
			count(*) AS total,
			count(*) FILTER (WHERE status = 'approved') AS approved,
			count(*) FILTER (WHERE status = 'pending') AS pending,
			count(*) FILTER (WHERE status = 'rejected') AS rejected,
			COALESCE(AVG(rating) FILTER (WHERE status = 'approved'), 0) AS average_rating,
			count(*) FILTER (WHERE status = 'approved' AND rating = 1) AS rating_1,
			count(*) FILTER (WHERE status = 'approved' AND rating = 2) AS rating_2,
			count(*) FILTER (WHERE status = 'approved' AND rating = 3) AS rating_3,
			count(*) FILTER (WHERE status = 'approved' AND rating = 4) AS rating_4,
			count(*) FILTER (WHERE status = 'approved' AND rating = 5) AS rating_5,
			COALESCE(SUM(helpful), 0) AS total_helpful
		FROM reviews
		%s`, where)

	stats := domain.NewReviewStats()
	var avg float64
	var r1, r2, r3, r4, r5 int

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.Total,
		&stats.Approved,
		&stats.Pending,
		&stats.Rejected,
		&avg,
		&r1, &r2, &r3, &r4, &r5,
		&stats.TotalHelpful,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate review stats: %w", err)
	}

	// Round to one decimal place.
	stats.AverageRating = math.Round(avg*10) / 10
	stats.RatingDistribution[1] = r1
	stats.RatingDistribution[2] = r2
	stats.RatingDistribution[3] = r3
	stats.RatingDistribution[4] = r4
	stats.RatingDistribution[5] = r5

	return stats, nil
}

// Delete removes a review permanently.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// queryReviews runs a listing query whose final column is count(*) OVER().
func (r *ReviewRepository) queryReviews(ctx context.Context, query string, args ...any) ([]domain.Review, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)

	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.CustomerID,
			&rv.OrderID,
			&rv.CustomerName,
			&rv.CustomerEmail,
			&rv.Rating,
			&rv.Title,
			&rv.Comment,
			&rv.Status,
			&rv.SpamScore,
			&rv.IsVerifiedPurchase,
			&rv.Helpful,
			&rv.NotHelpful,
			&rv.CreatedAt,
			&rv.ModeratedBy,
			&rv.ModeratedAt,
			&rv.ApprovedAt,
			&rv.RejectedAt,
			&rv.RejectionReason,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, totalCount, nil
}

// scanReview scans a single review row in reviewColumns order.
func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.CustomerID,
		&rv.OrderID,
		&rv.CustomerName,
		&rv.CustomerEmail,
		&rv.Rating,
		&rv.Title,
		&rv.Comment,
		&rv.Status,
		&rv.SpamScore,
		&rv.IsVerifiedPurchase,
		&rv.Helpful,
		&rv.NotHelpful,
		&rv.CreatedAt,
		&rv.ModeratedBy,
		&rv.ModeratedAt,
		&rv.ApprovedAt,
		&rv.RejectedAt,
		&rv.RejectionReason,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}
