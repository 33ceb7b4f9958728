package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amaplayer/search-service/internal/domain/entities"
	"github.com/amaplayer/search-service/internal/domain/repositories"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/postgres"
	"github.com/amaplayer/search-service/internal/search"
	apperrors "github.com/amaplayer/search-service/pkg/errors"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
)

// documentColumns is the select list of every document query. The scan in
// scanDocument follows exactly this order.
var documentColumns = []interface{}{
	"id", "doc_type", "display_name", "title", "role", "sport", "location",
	"verification_status", "event_status", "categories", "age", "is_active",
	"starts_at", "created_at", "updated_at",
}

// sortableColumns maps sort fields accepted from compiled queries onto
// real columns. search_text is a generated column.
var sortableColumns = map[string]string{
	"display_name": "display_name",
	"title":        "title",
	"search_text":  "search_text",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"starts_at":    "starts_at",
	"is_active":    "is_active",
}

// distinctColumns are the filter dimensions DistinctValues may enumerate.
var distinctColumns = map[string]bool{
	"role":                true,
	"sport":               true,
	"location":            true,
	"verification_status": true,
	"event_status":        true,
	"categories":          true,
}

// DocumentSearchAdapter implements DocumentSearchRepository on PostgreSQL
type DocumentSearchAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.DocumentSearchRepository = (*DocumentSearchAdapter)(nil)

// NewDocumentSearchAdapter creates a new document search adapter
func NewDocumentSearchAdapter(client *postgres.Client) *DocumentSearchAdapter {
	return &DocumentSearchAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Execute runs a compiled query and returns one page plus the cursor of
// its last row. The cursor is keyset-based: (sort value, id) of the last
// row, so deep pages cost the same as the first one.
func (a *DocumentSearchAdapter) Execute(ctx context.Context, q *search.Query) ([]*entities.SearchDocument, *search.Cursor, error) {
	sortColumn, ok := sortableColumns[q.Sort.Field]
	if !ok {
		sortColumn = "created_at"
	}

	dataset := a.db.Select(documentColumns...).From("search_documents")

	if q.DocType != entities.SearchTypeAll {
		dataset = dataset.Where(goqu.Ex{"doc_type": string(q.DocType)})
	}

	for _, c := range q.Constraints {
		expr, err := constraintExpression(c)
		if err != nil {
			return nil, nil, err
		}
		dataset = dataset.Where(expr)
	}

	if q.Cursor != nil {
		cmp := ">"
		if q.Sort.Descending {
			cmp = "<"
		}
		dataset = dataset.Where(goqu.L(
			fmt.Sprintf("(%s, id) %s (?, ?)", sortColumn, cmp),
			q.Cursor.SortValue, q.Cursor.ID,
		))
	}

	if q.Sort.Descending {
		dataset = dataset.Order(goqu.I(sortColumn).Desc(), goqu.I("id").Desc())
	} else {
		dataset = dataset.Order(goqu.I(sortColumn).Asc(), goqu.I("id").Asc())
	}

	limit := q.Limit
	if limit <= 0 {
		limit = entities.DefaultSearchLimit
	}
	dataset = dataset.Limit(uint(limit))

	query, args, err := dataset.ToSQL()
	if err != nil {
		return nil, nil, apperrors.NewInternalError("failed to build search query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewInternalError("failed to execute search query", err)
	}
	defer rows.Close()

	var docs []*entities.SearchDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewInternalError("error iterating search documents", err)
	}

	var next *search.Cursor
	if len(docs) == limit {
		last := docs[len(docs)-1]
		next = &search.Cursor{SortValue: sortValueOf(last, sortColumn), ID: last.ID}
	}

	return docs, next, nil
}

// GetByIDs retrieves documents by ID in the given order, skipping unknown
// IDs.
func (a *DocumentSearchAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.SearchDocument, error) {
	if len(ids) == 0 {
		return []*entities.SearchDocument{}, nil
	}

	query, args, err := a.db.Select(documentColumns...).
		From("search_documents").
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get documents by ids", err)
	}
	defer rows.Close()

	byID := make(map[string]*entities.SearchDocument, len(ids))
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		byID[doc.ID] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating search documents", err)
	}

	docs := make([]*entities.SearchDocument, 0, len(byID))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Index inserts or replaces a document
func (a *DocumentSearchAdapter) Index(ctx context.Context, doc *entities.SearchDocument) error {
	return a.IndexBatch(ctx, []*entities.SearchDocument{doc})
}

// IndexBatch inserts or replaces documents in one statement
func (a *DocumentSearchAdapter) IndexBatch(ctx context.Context, docs []*entities.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}

	now := time.Now()
	records := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		records = append(records, documentRecord(doc, now))
	}

	query, args, err := a.db.Insert("search_documents").
		Rows(records...).
		OnConflict(goqu.DoUpdate("id", excludedRecord())).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build index query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to index documents", err)
	}
	return nil
}

// Delete removes a document from the store
func (a *DocumentSearchAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("search_documents").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete document", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("document with id %s not found", id))
	}
	return nil
}

// DistinctValues lists the distinct values of a filterable field
func (a *DocumentSearchAdapter) DistinctValues(ctx context.Context, docType entities.SearchType, field string) ([]string, error) {
	if !distinctColumns[field] {
		return nil, apperrors.NewValidationError(fmt.Sprintf("field %s is not filterable", field))
	}

	selector := field
	if field == "categories" {
		selector = "unnest(categories)"
	}

	query := fmt.Sprintf("SELECT DISTINCT %s AS v FROM search_documents", selector)
	args := []interface{}{}
	if docType != entities.SearchTypeAll {
		query += " WHERE doc_type = $1"
		args = append(args, string(docType))
	}
	query += " ORDER BY v"

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list distinct values", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, apperrors.NewInternalError("failed to scan distinct value", err)
		}
		if v.Valid && v.String != "" {
			values = append(values, v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating distinct values", err)
	}
	return values, nil
}

// constraintExpression translates one compiled constraint into a goqu
// expression. Prefix constraints become a half-open range on the lowered
// column, so the index on lower(column) serves them.
func constraintExpression(c search.Constraint) (goqu.Expression, error) {
	switch c.Op {
	case search.OpEqual:
		return goqu.Ex{c.Field: c.Value}, nil
	case search.OpIn:
		return goqu.Ex{c.Field: c.Value}, nil
	case search.OpContains:
		values, ok := c.Value.([]string)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("contains constraint on %s requires string values", c.Field))
		}
		return goqu.L(fmt.Sprintf("%s && ?", c.Field), pq.Array(values)), nil
	case search.OpGTE:
		return goqu.I(c.Field).Gte(c.Value), nil
	case search.OpLTE:
		return goqu.I(c.Field).Lte(c.Value), nil
	case search.OpLT:
		return goqu.I(c.Field).Lt(c.Value), nil
	case search.OpPrefix:
		prefix, ok := c.Value.(string)
		if !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("prefix constraint on %s requires a string value", c.Field))
		}
		lowered := goqu.Func("lower", goqu.I(c.Field))
		return goqu.And(
			lowered.Gte(prefix),
			lowered.Lt(prefix+search.PrefixSentinel),
		), nil
	}
	return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported constraint operator: %s", c.Op))
}

func documentRecord(doc *entities.SearchDocument, now time.Time) goqu.Record {
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	return goqu.Record{
		"id":                  doc.ID,
		"doc_type":            string(doc.DocType),
		"display_name":        sql.NullString{String: doc.DisplayName, Valid: doc.DisplayName != ""},
		"title":               sql.NullString{String: doc.Title, Valid: doc.Title != ""},
		"role":                sql.NullString{String: doc.Role, Valid: doc.Role != ""},
		"sport":               sql.NullString{String: doc.Sport, Valid: doc.Sport != ""},
		"location":            sql.NullString{String: doc.Location, Valid: doc.Location != ""},
		"verification_status": sql.NullString{String: doc.VerificationStatus, Valid: doc.VerificationStatus != ""},
		"event_status":        sql.NullString{String: doc.EventStatus, Valid: doc.EventStatus != ""},
		"categories":          pq.Array(doc.Categories),
		"age":                 sql.NullInt32{Int32: int32(doc.Age), Valid: doc.Age > 0},
		"is_active":           doc.IsActive,
		"starts_at":           doc.StartsAt,
		"created_at":          createdAt,
		"updated_at":          now,
	}
}

func excludedRecord() goqu.Record {
	return goqu.Record{
		"doc_type":            goqu.L("EXCLUDED.doc_type"),
		"display_name":        goqu.L("EXCLUDED.display_name"),
		"title":               goqu.L("EXCLUDED.title"),
		"role":                goqu.L("EXCLUDED.role"),
		"sport":               goqu.L("EXCLUDED.sport"),
		"location":            goqu.L("EXCLUDED.location"),
		"verification_status": goqu.L("EXCLUDED.verification_status"),
		"event_status":        goqu.L("EXCLUDED.event_status"),
		"categories":          goqu.L("EXCLUDED.categories"),
		"age":                 goqu.L("EXCLUDED.age"),
		"is_active":           goqu.L("EXCLUDED.is_active"),
		"starts_at":           goqu.L("EXCLUDED.starts_at"),
		"updated_at":          goqu.L("EXCLUDED.updated_at"),
	}
}

func scanDocument(rows *sql.Rows) (*entities.SearchDocument, error) {
	doc := &entities.SearchDocument{}
	var displayName, title, role, sport, location sql.NullString
	var verificationStatus, eventStatus sql.NullString
	var age sql.NullInt32
	var startsAt sql.NullTime

	err := rows.Scan(
		&doc.ID,
		&doc.DocType,
		&displayName,
		&title,
		&role,
		&sport,
		&location,
		&verificationStatus,
		&eventStatus,
		pq.Array(&doc.Categories),
		&age,
		&doc.IsActive,
		&startsAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan search document", err)
	}

	doc.DisplayName = displayName.String
	doc.Title = title.String
	doc.Role = role.String
	doc.Sport = sport.String
	doc.Location = location.String
	doc.VerificationStatus = verificationStatus.String
	doc.EventStatus = eventStatus.String
	doc.Age = int(age.Int32)
	if startsAt.Valid {
		doc.StartsAt = &startsAt.Time
	}

	return doc, nil
}

// sortValueOf extracts the cursor sort value of a row. Times use
// RFC3339Nano so the cursor survives a JSON round trip.
func sortValueOf(doc *entities.SearchDocument, sortColumn string) interface{} {
	switch sortColumn {
	case "display_name":
		return doc.DisplayName
	case "title":
		return doc.Title
	case "search_text":
		return doc.SearchText()
	case "is_active":
		return doc.IsActive
	case "updated_at":
		return doc.UpdatedAt.Format(time.RFC3339Nano)
	case "starts_at":
		if doc.StartsAt == nil {
			return ""
		}
		return doc.StartsAt.Format(time.RFC3339Nano)
	}
	return doc.CreatedAt.Format(time.RFC3339Nano)
}
