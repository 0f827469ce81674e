package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	log "log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/catalog"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/ir"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MySQL 错误码
const (
	errBadField     = 1054
	errNoSuchTable  = 1146
	errQueryTimeout = 3024
)

const joinVideos = "INNER JOIN videos ON videos.id = video_snapshots.video_id"

type VideoStatsRepo interface {
	// Aggregate 执行校验过的查询，返回 count / sum / distinct_count 的结果
	Aggregate(ctx context.Context, q ir.Query) (int64, error)
}

type videoStatsRepoImpl struct {
	db      *gorm.DB
	dates   *util.DateParser
	catalog *catalog.Catalog
	columns map[catalog.Table]map[string]clause.Column
}

func NewVideoStatsRepository(db *gorm.DB, dates *util.DateParser) VideoStatsRepo {
	c := catalog.Default()
	columns := make(map[catalog.Table]map[string]clause.Column)
	for _, t := range c.Tables() {
		cols := make(map[string]clause.Column, len(t.Columns))
		for _, col := range t.Columns {
			cols[col.Name] = clause.Column{Table: string(t.Name), Name: col.Name}
		}
		columns[t.Name] = cols
	}
	return &videoStatsRepoImpl{
		db:      db,
		dates:   dates,
		catalog: c,
		columns: columns,
	}
}

type aggregateResult struct {
	Value sql.NullInt64 `gorm:"column:value"`
}

// Aggregate 在只读事务中执行，查询结果为 NULL 时返回 0
func (r *videoStatsRepoImpl) Aggregate(ctx context.Context, q ir.Query) (int64, error) {
	var res aggregateResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt, err := r.compile(ctx, tx, q)
		if err != nil {
			return err
		}
		return stmt.Scan(&res).Error
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return 0, classify(err)
	}
	return res.Value.Int64, nil
}

// queryBuilder 单次查询的编译状态
type queryBuilder struct {
	tx     *gorm.DB
	base   catalog.Table
	joined bool
}

func (b *queryBuilder) join() {
	if b.base == catalog.TableSnapshots && !b.joined {
		b.tx = b.tx.Joins(joinVideos)
		b.joined = true
	}
}

func (b *queryBuilder) where(exprs ...clause.Expression) {
	b.tx = b.tx.Where(clause.And(exprs...))
}

// compile 把 IR 编译为 gorm 查询，所有列都带表名限定且只来自 Catalog
func (r *videoStatsRepoImpl) compile(ctx context.Context, tx *gorm.DB, q ir.Query) (*gorm.DB, error) {
	cols, ok := r.columns[q.Table]
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", apperrors.ErrSchemaMismatch, q.Table)
	}
	b := &queryBuilder{tx: tx.Table(string(q.Table)), base: q.Table}

	switch q.Type {
	case catalog.QueryCount:
		b.tx = b.tx.Select("COUNT(*) AS value")
	case catalog.QuerySum:
		col, err := r.field(q)
		if err != nil {
			return nil, err
		}
		b.tx = b.tx.Select("COALESCE(SUM(?), 0) AS value", col)
	case catalog.QueryDistinctCount:
		col, err := r.field(q)
		if err != nil {
			return nil, err
		}
		if q.ExtractDate && r.isTimestamp(q.Table, q.Field) {
			b.tx = b.tx.Select("COUNT(DISTINCT DATE(?)) AS value", col)
		} else {
			b.tx = b.tx.Select("COUNT(DISTINCT ?) AS value", col)
		}
	default:
		panic(fmt.Sprintf("repository: unsupported query type %q", q.Type))
	}

	if q.HasCreator() {
		creator := r.columns[catalog.TableVideos][catalog.FieldCreatorID]
		b.join()
		b.where(clause.Eq{Column: creator, Value: q.NormalizedCreatorID()})

		// 按创作者统计增长量时，只累加正增量
		if q.Type == catalog.QuerySum && q.Table == catalog.TableSnapshots && catalog.IsDeltaField(q.Field) {
			b.where(clause.Gt{Column: cols[q.Field], Value: 0})
		}
	}

	if err := r.applyDates(ctx, b, q); err != nil {
		return nil, err
	}

	for _, m := range q.Filters.Metrics {
		col, ok := cols[m.Field]
		if !ok {
			log.WarnContext(ctx, "指标字段不在当前表上，忽略该条件", "table", q.Table, "field", m.Field)
			continue
		}
		b.where(compare(col, m.Op, m.Value))
	}

	for _, d := range q.Filters.Deltas {
		col, ok := cols[d.Field]
		if !ok || !catalog.IsDeltaField(d.Field) {
			log.WarnContext(ctx, "增量字段不在当前表上，忽略该条件", "table", q.Table, "field", d.Field)
			continue
		}
		b.where(compare(col, d.Op, d.Value))
	}

	return b.tx, nil
}

func (r *videoStatsRepoImpl) field(q ir.Query) (clause.Column, error) {
	if q.Field == "" {
		return clause.Column{}, fmt.Errorf("%w: %s requires a field", apperrors.ErrSchemaMismatch, q.Type)
	}
	col, ok := r.columns[q.Table][q.Field]
	if !ok {
		return clause.Column{}, fmt.Errorf("%w: field %q does not exist on %s", apperrors.ErrSchemaMismatch, q.Field, q.Table)
	}
	if q.Type == catalog.QuerySum {
		def, _ := r.catalog.Column(q.Table, q.Field)
		if !def.Kind.Summable() {
			return clause.Column{}, fmt.Errorf("%w: field %q of %s cannot be summed", apperrors.ErrSchemaMismatch, q.Field, q.Table)
		}
	}
	return col, nil
}

func (r *videoStatsRepoImpl) isTimestamp(table catalog.Table, field string) bool {
	def, ok := r.catalog.Column(table, field)
	return ok && def.Kind == catalog.KindTimestamp
}

// dateColumn date_field 在基础表上时直接使用；video_created_at 在快照表上需要关联 videos
func (r *videoStatsRepoImpl) dateColumn(b *queryBuilder, q ir.Query) (clause.Column, error) {
	name := q.ResolvedDateField()
	if col, ok := r.columns[q.Table][name]; ok {
		return col, nil
	}
	if col, ok := r.columns[catalog.TableVideos][name]; ok && q.Table == catalog.TableSnapshots {
		b.join()
		return col, nil
	}
	return clause.Column{}, fmt.Errorf("%w: date field %q does not exist on %s", apperrors.ErrSchemaMismatch, name, q.Table)
}

func (r *videoStatsRepoImpl) applyDates(ctx context.Context, b *queryBuilder, q ir.Query) error {
	f := q.Filters
	if !q.HasDateWindow() {
		if f.TimeFrom != "" || f.TimeTo != "" {
			log.WarnContext(ctx, "缺少日期，忽略时间段条件", "time_from", f.TimeFrom, "time_to", f.TimeTo)
		}
		return nil
	}

	col, err := r.dateColumn(b, q)
	if err != nil {
		return err
	}

	if f.Date != "" {
		w, err := r.dates.DayWindow(ctx, f.Date, f.TimeFrom, f.TimeTo)
		if err != nil {
			return err
		}
		applyWindow(b, col, w)
		log.DebugContext(ctx, "应用日期条件", "column", col.Name, "start", w.Start, "end", w.End)
	}

	if f.DateFrom != "" || f.DateTo != "" {
		w, err := r.dates.RangeWindow(f.DateFrom, f.DateTo)
		if err != nil {
			return err
		}
		// 时间段只作用于单日条件
		if f.Date == "" && (f.TimeFrom != "" || f.TimeTo != "") {
			log.WarnContext(ctx, "日期范围条件不支持时间段，已忽略", "time_from", f.TimeFrom, "time_to", f.TimeTo)
		}
		applyWindow(b, col, w)
		log.DebugContext(ctx, "应用日期范围条件", "column", col.Name, "start", w.Start, "end", w.End)
	}
	return nil
}

func applyWindow(b *queryBuilder, col clause.Column, w util.Window) {
	if w.HasStart() {
		b.where(clause.Gte{Column: col, Value: w.Start})
	}
	if w.HasEnd() {
		b.where(clause.Lte{Column: col, Value: w.End})
	}
}

func compare(col clause.Column, op ir.Op, value any) clause.Expression {
	switch op {
	case ir.OpGT:
		return clause.Gt{Column: col, Value: value}
	case ir.OpLT:
		return clause.Lt{Column: col, Value: value}
	default:
		return clause.Eq{Column: col, Value: value}
	}
}

// classify 将执行阶段的错误归类，已归类的错误原样返回
func classify(err error) error {
	if kind := apperrors.KindOf(err); kind != nil && kind != apperrors.ErrTimeout {
		return err
	}
	if apperrors.IsTimeout(err) {
		return fmt.Errorf("%w: query: %v", apperrors.ErrTimeout, err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errBadField, errNoSuchTable:
			return fmt.Errorf("%w: %v", apperrors.ErrSchemaMismatch, err)
		case errQueryTimeout:
			return fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
		}
	}
	return fmt.Errorf("%w: %v", apperrors.ErrStorage, err)
}
