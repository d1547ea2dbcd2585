package files

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/charismabi/handson/internal/clipping"
	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/ident"
	"github.com/charismabi/handson/internal/provision"
	"github.com/charismabi/handson/internal/storage"
	"github.com/charismabi/handson/internal/util"
)

const (
	clippingTable = "clippings_news"
	sheetName     = "Sheet1"
	xlsxType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// clippingColumns fixa a ordem das colunas de notícia na planilha exportada.
var clippingColumns = []string{
	"news_code", "publication_date", "vehicle", "title", "theme", "subject_name_slug",
	"media_type", "tier", "feeling", "readers", "journalist", "original_link",
	"valuation", "created_date", "modified_date", "is_active", "approved_news", "company_id",
}

// Catalog expõe a estrutura das tabelas dinâmicas.
type Catalog interface {
	TableExists(ctx context.Context, ref ident.Ref) (bool, error)
	Columns(ctx context.Context, ref ident.Ref) ([]provision.Column, error)
}

// RowStore grava e lê linhas das tabelas dinâmicas.
type RowStore interface {
	InsertRows(ctx context.Context, ref ident.Ref, rows []Row, mode ConflictMode) ([]Inserted, error)
	Page(ctx context.Context, ref ident.Ref, page db.Page) ([]Row, int, error)
	ActiveInRange(ctx context.Context, ref ident.Ref, from, to time.Time) ([]string, []Row, error)
}

// NewsStore grava e lê notícias no banco clipping.
type NewsStore interface {
	UpsertNews(ctx context.Context, q db.DBTX, n clipping.News) (bool, error)
	NewsByCodes(ctx context.Context, codes []string) (map[string]clipping.Row, error)
}

type Service struct {
	catalog    Catalog
	rows       RowStore
	news       NewsStore
	clippingDB db.Pool
	archive    storage.Uploader
	log        zerolog.Logger
	now        func() time.Time
}

// NewService monta o serviço; archive nil desliga o arquivamento das exportações.
func NewService(catalog Catalog, rows RowStore, news NewsStore, clippingDB db.Pool, archive storage.Uploader, logger zerolog.Logger) *Service {
	return &Service{
		catalog:    catalog,
		rows:       rows,
		news:       news,
		clippingDB: clippingDB,
		archive:    archive,
		log:        logger,
		now:        time.Now,
	}
}

// UploadClipping grava as notícias no clipping e as linhas na tabela dinâmica.
// Todos os itens são validados antes da primeira escrita.
func (s *Service) UploadClipping(ctx context.Context, schema, table string, clippingCompanyID int, items []Item) (UploadReport, error) {
	ref, columns, err := s.prepare(ctx, schema, table, clippingCompanyID, items)
	if err != nil {
		return UploadReport{}, err
	}

	news := make([]clipping.News, len(items))
	rows := make([]Row, len(items))
	for i, item := range items {
		n, err := newsFromItem(item, clippingCompanyID)
		if err != nil {
			return UploadReport{}, util.Invalid("erro ao processar o item %d: %v", i+1, err)
		}
		row, err := dynamicRow(item, columns)
		if err != nil {
			return UploadReport{}, util.Invalid("erro ao processar o item %d: %v", i+1, err)
		}
		row["news_code"] = n.NewsCode
		row["date"] = n.PublicationDate
		row["company_id"] = clippingCompanyID
		news[i] = n
		rows[i] = row
	}

	err = db.WithTx(ctx, s.clippingDB, func(ctx context.Context, tx pgx.Tx) error {
		for _, n := range news {
			if _, err := s.news.UpsertNews(ctx, tx, n); err != nil {
				return fmt.Errorf("notícia %s: %w", n.NewsCode, err)
			}
		}
		return nil
	})
	if err != nil {
		return UploadReport{}, err
	}

	inserted, err := s.rows.InsertRows(ctx, ref, rows, UpdateOnNews)
	if err != nil {
		s.log.Error().Err(err).Str("table", ref.String()).Int("news", len(news)).Msg("notícias gravadas, linhas do hands-on falharam")
		return UploadReport{}, err
	}

	report := UploadReport{Saved: make([]Saved, 0, 2*len(items))}
	for i, n := range news {
		report.Saved = append(report.Saved,
			Saved{Table: clippingTable, ID: n.NewsCode},
			Saved{Table: ref.Table, ID: inserted[i].ID},
		)
	}
	return report, nil
}

// UploadHandsOn grava apenas na tabela dinâmica, sem news_code. Linhas já
// existentes são puladas e informadas pelo índice do item.
func (s *Service) UploadHandsOn(ctx context.Context, schema, table string, companyID int, items []Item) (UploadReport, error) {
	ref, columns, err := s.prepare(ctx, schema, table, companyID, items)
	if err != nil {
		return UploadReport{}, err
	}

	rows := make([]Row, len(items))
	for i, item := range items {
		date, err := parseDate(field(item, "data"))
		if err != nil {
			return UploadReport{}, util.Invalid("erro ao processar a data no item %d: %v", i+1, err)
		}
		row, err := dynamicRow(item, columns)
		if err != nil {
			return UploadReport{}, util.Invalid("erro ao processar o item %d: %v", i+1, err)
		}
		row["date"] = date
		row["company_id"] = companyID
		rows[i] = row
	}

	inserted, err := s.rows.InsertRows(ctx, ref, rows, SkipConflicts)
	if err != nil {
		return UploadReport{}, err
	}

	report := UploadReport{Saved: make([]Saved, 0, len(items))}
	for i, in := range inserted {
		if in.Skipped {
			report.Skipped = append(report.Skipped, i+1)
			continue
		}
		report.Saved = append(report.Saved, Saved{Table: ref.Table, ID: in.ID})
	}
	return report, nil
}

func (s *Service) prepare(ctx context.Context, schema, table string, companyID int, items []Item) (ident.Ref, map[string]string, error) {
	ref, err := ident.Resolve(schema, table)
	if err != nil {
		return ident.Ref{}, nil, err
	}
	if companyID <= 0 {
		return ident.Ref{}, nil, util.Invalid("company_id inválido")
	}
	if len(items) == 0 {
		return ident.Ref{}, nil, util.Invalid("insira dados válidos")
	}

	cols, err := s.catalog.Columns(ctx, ref)
	if err != nil {
		return ident.Ref{}, nil, err
	}
	if len(cols) == 0 {
		return ident.Ref{}, nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	columns := make(map[string]string, len(cols))
	for _, c := range cols {
		columns[c.Name] = c.DataType
	}
	return ref, columns, nil
}

// Combined pagina a tabela dinâmica junto com as notícias correspondentes.
func (s *Service) Combined(ctx context.Context, schema, table string, page db.Page) (db.Listing[CombinedRow], error) {
	ref, err := ident.Resolve(schema, table)
	if err != nil {
		return db.Listing[CombinedRow]{}, err
	}
	exists, err := s.catalog.TableExists(ctx, ref)
	if err != nil {
		return db.Listing[CombinedRow]{}, err
	}
	if !exists {
		return db.Listing[CombinedRow]{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}

	page = page.Normalize()
	rows, total, err := s.rows.Page(ctx, ref, page)
	if err != nil {
		return db.Listing[CombinedRow]{}, err
	}
	news, err := s.news.NewsByCodes(ctx, newsCodes(rows))
	if err != nil {
		return db.Listing[CombinedRow]{}, err
	}

	out := make([]CombinedRow, len(rows))
	for i, row := range rows {
		cr := CombinedRow{Dynamic: row, Clipping: map[string]any{}}
		if n, ok := news[codeOf(row)]; ok {
			cr.Clipping = n
		}
		out[i] = cr
	}
	return db.NewListing(out, total, page), nil
}

// Export gera a planilha das linhas ativas no intervalo de datas.
func (s *Service) Export(ctx context.Context, schema, table, start, end string) (Workbook, error) {
	ref, err := ident.Resolve(schema, table)
	if err != nil {
		return Workbook{}, err
	}
	from, to, err := util.ParseDateRange(start, end)
	if err != nil {
		return Workbook{}, err
	}

	dynCols, rows, err := s.rows.ActiveInRange(ctx, ref, from, to)
	if err != nil {
		return Workbook{}, err
	}
	if len(rows) == 0 {
		return Workbook{}, ErrNoData
	}
	news, err := s.news.NewsByCodes(ctx, newsCodes(rows))
	if err != nil {
		return Workbook{}, err
	}

	body, err := buildWorkbook(dynCols, rows, news)
	if err != nil {
		return Workbook{}, err
	}
	wb := Workbook{
		Filename: fmt.Sprintf("%s_%s_%s.xlsx", ref.Table, from.Format(util.DateLayout), to.Format(util.DateLayout)),
		Body:     body,
	}

	if s.archive != nil {
		key := fmt.Sprintf("exports/%s/%s/%s-%s.xlsx", ref.Schema, ref.Table, s.now().UTC().Format("20060102T150405"), uuid.NewString()[:8])
		res, err := s.archive.Upload(ctx, storage.UploadInput{
			Key:         key,
			Body:        body,
			ContentType: xlsxType,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("falha ao arquivar exportação")
		} else {
			wb.Archived = res.URL
		}
	}
	return wb, nil
}

func buildWorkbook(dynCols []string, rows []Row, news map[string]clipping.Row) ([]byte, error) {
	var newsCols []string
	if len(news) > 0 {
		newsCols = orderedNewsColumns(news)
	}
	drop := map[string]bool{"news_code": true}
	if len(news) > 0 {
		drop["id"] = true
	}
	kept := make([]string, 0, len(dynCols))
	for _, c := range dynCols {
		if !drop[c] {
			kept = append(kept, c)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, 0, len(newsCols)+len(kept))
	for _, c := range newsCols {
		header = append(header, c)
	}
	for _, c := range kept {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range rows {
		line := make([]any, 0, len(header))
		n := news[codeOf(row)]
		for _, c := range newsCols {
			line = append(line, cellValue(n[c]))
		}
		for _, c := range kept {
			line = append(line, cellValue(row[c]))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &line); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// orderedNewsColumns segue a ordem conhecida e acrescenta as demais colunas
// em ordem alfabética. O id interno do clipping não vai para a planilha.
func orderedNewsColumns(news map[string]clipping.Row) []string {
	present := map[string]bool{}
	for _, n := range news {
		for k := range n {
			present[k] = true
		}
	}
	delete(present, "id")

	out := make([]string, 0, len(present))
	for _, c := range clippingColumns {
		if present[c] {
			out = append(out, c)
			delete(present, c)
		}
	}
	extra := make([]string, 0, len(present))
	for c := range present {
		extra = append(extra, c)
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return f.Float64
	case time.Time:
		return t.UTC()
	case [16]byte:
		return uuid.UUID(t).String()
	}
	return v
}

func codeOf(row Row) string {
	code, _ := row["news_code"].(string)
	return strings.TrimSpace(code)
}

func newsCodes(rows []Row) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		code := codeOf(row)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
