package gormsource

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/jonwraymond/cachefu/cache"
	"github.com/jonwraymond/cachefu/source"
)

const findByPrefix = "find_by_"

// Scope refines a query. Named scopes are selected with Options.Finder.
type Scope func(*gorm.DB) *gorm.DB

// Config configures a Source.
type Config struct {
	// Column is the identifier column. Default: the primary key.
	Column string

	// Scopes maps finder names to query refinements, e.g. "published".
	Scopes map[string]Scope
}

// Source loads records of model M. P is *M and must implement cache.Record.
type Source[M any, P interface {
	*M
	cache.Record
}] struct {
	db     *gorm.DB
	schema *schema.Schema
	column *schema.Field
	scopes map[string]Scope
}

// New creates a Source for model M.
func New[M any, P interface {
	*M
	cache.Record
}](db *gorm.DB, cfg Config) (*Source[M, P], error) {
	if db == nil {
		return nil, ErrNilDB
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(M)); err != nil {
		return nil, fmt.Errorf("gormsource: parse model: %w", err)
	}

	column := stmt.Schema.PrioritizedPrimaryField
	if cfg.Column != "" {
		column = stmt.Schema.LookUpField(cfg.Column)
		if column == nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownColumn, cfg.Column)
		}
	}
	if column == nil {
		return nil, ErrNoPrimaryKey
	}

	return &Source[M, P]{
		db:     db,
		schema: stmt.Schema,
		column: column,
		scopes: cfg.Scopes,
	}, nil
}

// Table returns the model's table name.
func (s *Source[M, P]) Table() string { return s.schema.Table }

func (s *Source[M, P]) FetchOne(ctx context.Context, id string, opts cache.Options) (P, bool, error) {
	q, col, err := s.query(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	v, ok := convert(col, id)
	if !ok {
		return nil, false, nil
	}

	var m M
	err = q.Where(clause.Eq{Column: columnOf(col), Value: v}).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &m, true, nil
}

func (s *Source[M, P]) FetchMany(ctx context.Context, ids []string, opts cache.Options) ([]P, error) {
	q, col, err := s.query(ctx, opts)
	if err != nil {
		return nil, err
	}
	values := make([]any, 0, len(ids))
	for _, id := range ids {
		if v, ok := convert(col, id); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, nil
	}
	if opts.PerPage > 0 {
		q = q.Limit(opts.PerPage).Offset((max(opts.Page, 1) - 1) * opts.PerPage)
	}

	var rows []M
	if err := q.Where(clause.IN{Column: columnOf(col), Values: values}).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]P, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

// query builds the finder, args and include parts shared by both fetches.
func (s *Source[M, P]) query(ctx context.Context, opts cache.Options) (*gorm.DB, *schema.Field, error) {
	q := s.db.WithContext(ctx).Model(new(M))
	col := s.column

	switch name := opts.Finder; {
	case name == "":
	case s.scopes[name] != nil:
		q = q.Scopes(s.scopes[name])
	case strings.HasPrefix(name, findByPrefix):
		col = s.schema.LookUpField(strings.TrimPrefix(name, findByPrefix))
		if col == nil || col.DBName == "" {
			return nil, nil, fmt.Errorf("%w: %s", source.ErrUnknownFinder, name)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s", source.ErrUnknownFinder, name)
	}

	if args := opts.FilteredArgs(); len(args) > 0 {
		conds := make(map[string]any, len(args))
		for name, v := range args {
			f := s.schema.LookUpField(name)
			if f == nil || f.DBName == "" {
				return nil, nil, fmt.Errorf("%w %q", ErrUnknownColumn, name)
			}
			conds[f.DBName] = v
		}
		q = q.Where(conds)
	}

	for _, rel := range opts.Include {
		top, _, _ := strings.Cut(rel, ".")
		if _, ok := s.schema.Relationships.Relations[top]; !ok {
			return nil, nil, fmt.Errorf("%w %q", ErrUnknownRelation, rel)
		}
		q = q.Preload(rel)
	}
	return q, col, nil
}

func columnOf(f *schema.Field) clause.Column {
	return clause.Column{Table: clause.CurrentTable, Name: f.DBName}
}

// convert parses id for integer columns. An id that cannot be an integer
// matches no row.
func convert(f *schema.Field, id string) (any, bool) {
	switch f.DataType {
	case schema.Int:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil
	case schema.Uint:
		n, err := strconv.ParseUint(id, 10, 64)
		return n, err == nil
	default:
		return id, true
	}
}
