package http

import (
	"errors"
	"net/http"

	"github.com/charismabi/handson/internal/provision"
	"github.com/charismabi/handson/internal/register"
	"github.com/charismabi/handson/internal/util"
)

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request, deleted, ranged bool, key string) {
	table, err := requiredQuery(r, "table_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	schema, err := requiredQuery(r, "schema_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filter := register.Filter{Deleted: deleted}
	if ranged {
		from, to, err := util.ParseDateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		filter.From, filter.To = from, to
	}

	listing, err := h.registers.List(r.Context(), schema, table, filter, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, pageBody(listing, key))
}

// FilterByDate lista registros ativos no intervalo de datas.
func (h *Handler) FilterByDate(w http.ResponseWriter, r *http.Request) {
	h.listRecords(w, r, false, true, "data")
}

// FilterTrashByDate lista registros na lixeira no intervalo de datas.
func (h *Handler) FilterTrashByDate(w http.ResponseWriter, r *http.Request) {
	h.listRecords(w, r, true, true, "deleted_records")
}

func (h *Handler) TrashRegisters(w http.ResponseWriter, r *http.Request) {
	h.listRecords(w, r, true, false, "trash")
}

func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	h.listRecords(w, r, false, false, "active_records")
}

// FilterByCompany lista as tabelas do schema com linhas da empresa.
func (h *Handler) FilterByCompany(w http.ResponseWriter, r *http.Request) {
	companyID, err := positiveIntQuery(r, "company_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	schema, err := requiredQuery(r, "schema_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	listing, err := h.companies.TablesByCompany(r.Context(), schema, companyID, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if listing.Total == 0 {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "nenhuma informação encontrada para o identificador informado", nil)
		return
	}
	WriteJSON(w, http.StatusOK, pageBody(listing, "tables"))
}

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	var p tablesPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var created []string
	err := p.each(func(schema, table string) error {
		ref, err := h.provision.CreateTable(r.Context(), schema, table)
		if err != nil {
			return err
		}
		created = append(created, ref.String())
		return nil
	})
	if err != nil {
		writePartial(w, r, applied("tables", created, len(created)), err)
		return
	}
	WriteJSON(w, http.StatusCreated, message("tabelas criadas com sucesso", "tables", created))
}

func (h *Handler) CreateSchema(w http.ResponseWriter, r *http.Request) {
	var p schemasPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	created := make([]string, 0, len(p.Schemas))
	for _, s := range p.Schemas {
		name, err := h.provision.CreateSchema(r.Context(), s.SchemaName)
		if err != nil {
			writePartial(w, r, applied("schemas", created, len(created)), err)
			return
		}
		created = append(created, name)
	}
	WriteJSON(w, http.StatusCreated, message("schemas criados com sucesso", "schemas", created))
}

// CreateColumn devolve o handler de criação de colunas do tipo informado.
func (h *Handler) CreateColumn(typ provision.ColumnType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p columnsPayload
		if err := decodeJSON(w, r, &p); err != nil {
			writeServiceError(w, r, err)
			return
		}

		var added []string
		err := p.each(func(schema, table string) error {
			cols, err := h.provision.AddColumns(r.Context(), schema, table, typ, p.names())
			added = append(added, cols...)
			return err
		})
		if err != nil {
			if len(added) > 0 {
				writeEnvelope(w, http.StatusBadRequest, message("criação interrompida", "columns", added), &ErrorBody{Code: "PARTIAL", Message: err.Error()})
				return
			}
			writeServiceError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, message("colunas criadas com sucesso", "columns", added))
	}
}

// AssociateCompany grava company_id em todas as linhas da tabela.
func (h *Handler) AssociateCompany(w http.ResponseWriter, r *http.Request) {
	table, err := requiredQuery(r, "table_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	schema, err := requiredQuery(r, "schema_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	companyID, err := positiveIntQuery(r, "company_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	rows, err := h.companies.AssociateTable(r.Context(), schema, table, companyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, message("empresa associada com sucesso", "rows_updated", rows))
}

func (h *Handler) RenameField(w http.ResponseWriter, r *http.Request) {
	var p renamePayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var renamed []fieldChange
	err := p.each(func(schema, table string) error {
		for _, c := range p.Columns {
			if err := h.provision.RenameColumn(r.Context(), schema, table, c.OldName, c.NewName); err != nil {
				return err
			}
			renamed = append(renamed, fieldChange{Schema: schema, Table: table, Field: c.OldName, Result: c.NewName})
		}
		return nil
	})
	if err != nil {
		writePartial(w, r, applied("fields", renamed, len(renamed)), err)
		return
	}
	WriteJSON(w, http.StatusOK, message("campos renomeados com sucesso", "fields", renamed))
}

// fieldChange é um campo já alterado dentro de um lote.
type fieldChange struct {
	Schema string `json:"schema_name"`
	Table  string `json:"table_name"`
	Field  string `json:"field_name"`
	Result string `json:"result"`
}

// applied monta o data parcial de um lote interrompido; nil quando nada
// foi aplicado.
func applied(key string, items any, n int) map[string]any {
	if n == 0 {
		return nil
	}
	return map[string]any{key: items}
}

type typeChange struct {
	column string
	typ    provision.ColumnType
}

// changes resolve os pares campo/tipo antes de qualquer escrita.
func (p typePayload) changes() ([]typeChange, error) {
	var out []typeChange
	for _, f := range p.Fields {
		if f.FieldName == "" {
			return nil, util.Invalid("é necessário informar o nome do campo")
		}
		types := []string{f.FieldType}
		if f.FieldType == "" {
			types = types[:0]
			for _, ft := range p.FieldsType {
				types = append(types, ft.FieldType)
			}
		}
		if len(types) == 0 {
			return nil, util.Invalid("é necessário informar o tipo do campo %s", f.FieldName)
		}
		for _, raw := range types {
			typ, err := provision.ParseColumnType(raw)
			if err != nil {
				return nil, util.Invalid("tipo %q não suportado", raw)
			}
			out = append(out, typeChange{column: f.FieldName, typ: typ})
		}
	}
	return out, nil
}

func (h *Handler) UpdateTypeField(w http.ResponseWriter, r *http.Request) {
	var p typePayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	changes, err := p.changes()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var changed []fieldChange
	err = p.each(func(schema, table string) error {
		for _, c := range changes {
			if err := h.provision.ChangeColumnType(r.Context(), schema, table, c.column, c.typ); err != nil {
				return err
			}
			changed = append(changed, fieldChange{Schema: schema, Table: table, Field: c.column, Result: string(c.typ)})
		}
		return nil
	})
	if err != nil {
		writePartial(w, r, applied("fields", changed, len(changed)), err)
		return
	}
	WriteJSON(w, http.StatusOK, message("tipos de campos atualizados com sucesso", "fields", changed))
}

type transitionFunc func(r *http.Request, schema, table string, id int64) (register.Result, error)

// applyRecords executa a transição em lote e para na primeira falha que não
// seja espelhamento pendente, devolvendo junto do erro os registros já
// alterados.
func (h *Handler) applyRecords(w http.ResponseWriter, r *http.Request, done string, fn transitionFunc) {
	var p recordsPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	results := make([]register.Result, 0, len(p.Columns))
	pending := false
	err := p.each(func(schema, table string) error {
		for _, c := range p.Columns {
			res, err := fn(r, schema, table, c.RecordID)
			if errors.Is(err, register.ErrMirrorPending) {
				pending = true
				results = append(results, res)
				continue
			}
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		writePartial(w, r, applied("records", results, len(results)), err)
		return
	}

	body := message(done, "records", results)
	if pending {
		writeEnvelope(w, http.StatusAccepted, body, &ErrorBody{Code: "MIRROR_PENDING", Message: "alteração aplicada; espelhamento no clipping será reprocessado"})
		return
	}
	WriteJSON(w, http.StatusOK, body)
}

func (h *Handler) ActiveRegister(w http.ResponseWriter, r *http.Request) {
	h.applyRecords(w, r, "registros restaurados com sucesso", func(r *http.Request, schema, table string, id int64) (register.Result, error) {
		return h.registers.Restore(r.Context(), schema, table, id)
	})
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	h.applyRecords(w, r, "registros movidos para a lixeira", func(r *http.Request, schema, table string, id int64) (register.Result, error) {
		return h.registers.MarkDeleted(r.Context(), schema, table, id)
	})
}
