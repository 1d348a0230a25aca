package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"pazaauto.id/internal/entity"
)

var auditColumns = []string{"created_at", "updated_at", "created_by", "updated_by"}

// TableSpec describes how an entity maps onto a table. Column names must
// match the db tags of the entity type.
type TableSpec struct {
	Name string
	// Columns are the writable columns, excluding id and audit columns.
	Columns []string
	// Searchable columns are matched case-insensitively by substring.
	Searchable []string
	// Sortable maps request sort keys to columns. Unknown keys sort by id.
	Sortable map[string]string
}

// Table is a generic entity repository over one table with an integer id.
type Table[T any] struct {
	db   *DB
	spec TableSpec
	cols string
}

var _ entity.Repository[struct{}, int64] = (*Table[struct{}])(nil)

// NewTable builds a repository for spec.
func NewTable[T any](db *DB, spec TableSpec) *Table[T] {
	all := append([]string{"id"}, spec.Columns...)
	all = append(all, auditColumns...)
	return &Table[T]{db: db, spec: spec, cols: strings.Join(all, ", ")}
}

// Insert stamps audit columns and returns the generated id.
func (t *Table[T]) Insert(ctx context.Context, e *T) (int64, error) {
	t.db.stampCreate(ctx, e)
	cols := append(append([]string{}, t.spec.Columns...), auditColumns...)
	q := fmt.Sprintf("insert into %s (%s) values (:%s) returning id",
		t.spec.Name, strings.Join(cols, ", "), strings.Join(cols, ", :"))
	named, args, err := sqlx.Named(q, e)
	if err != nil {
		return 0, fmt.Errorf("bind %s insert: %w", t.spec.Name, err)
	}
	var id int64
	if err := t.db.ext(ctx).QueryRowxContext(ctx, t.db.rebind(named), args...).Scan(&id); err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

// Get returns entity.ErrNotFound when id is absent.
func (t *Table[T]) Get(ctx context.Context, id int64) (T, error) {
	q := fmt.Sprintf("select %s from %s where id = ?", t.cols, t.spec.Name)
	out, err := Get[T](ctx, t.db, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return out, entity.ErrNotFound
	}
	return out, err
}

// Update writes the writable columns and the update stamp. Creation audit
// columns are never rewritten.
func (t *Table[T]) Update(ctx context.Context, id int64, e *T) error {
	t.db.stampUpdate(ctx, e)
	sets := make([]string, 0, len(t.spec.Columns)+2)
	for _, c := range append(append([]string{}, t.spec.Columns...), "updated_at", "updated_by") {
		sets = append(sets, c+" = :"+c)
	}
	q := fmt.Sprintf("update %s set %s", t.spec.Name, strings.Join(sets, ", "))
	named, args, err := sqlx.Named(q, e)
	if err != nil {
		return fmt.Errorf("bind %s update: %w", t.spec.Name, err)
	}
	n, err := Exec(ctx, t.db, named+" where id = ?", append(args, id)...)
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// Delete reports whether a row was removed.
func (t *Table[T]) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := Exec(ctx, t.db, fmt.Sprintf("delete from %s where id = ?", t.spec.Name), id)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns every row in id order.
func (t *Table[T]) List(ctx context.Context) ([]T, error) {
	return Select[T](ctx, t.db, fmt.Sprintf("select %s from %s order by id", t.cols, t.spec.Name))
}

// Query filters, sorts and windows rows and counts the filtered set.
func (t *Table[T]) Query(ctx context.Context, q entity.Query) ([]T, int64, error) {
	where, args := t.where(q.Search)

	countQ := fmt.Sprintf("select count(*) from %s%s", t.spec.Name, where)
	total, err := Get[int64](ctx, t.db, countQ, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.spec.Name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "select %s from %s%s order by %s", t.cols, t.spec.Name, where, t.orderBy(q.SortBy, q.Descending))
	if q.Limit > 0 {
		b.WriteString(" limit ? offset ?")
		args = append(args, q.Limit, q.Offset)
	}
	rows, err := Select[T](ctx, t.db, b.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", t.spec.Name, err)
	}
	return rows, total, nil
}

func (t *Table[T]) where(search string) (string, []any) {
	search = strings.TrimSpace(search)
	if search == "" || len(t.spec.Searchable) == 0 {
		return "", nil
	}
	pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
	conds := make([]string, 0, len(t.spec.Searchable))
	args := make([]any, 0, len(t.spec.Searchable))
	for _, c := range t.spec.Searchable {
		conds = append(conds, fmt.Sprintf(`lower(%s) like ? escape '\'`, c))
		args = append(args, pattern)
	}
	return " where " + strings.Join(conds, " or "), args
}

func (t *Table[T]) orderBy(sortBy string, desc bool) string {
	col, ok := t.spec.Sortable[strings.TrimSpace(sortBy)]
	if !ok {
		col = "id"
	}
	dir := "asc"
	if desc {
		dir = "desc"
	}
	if col == "id" {
		return "id " + dir
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
