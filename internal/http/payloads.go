package http

type tableRef struct {
	TableName string `json:"table_name" validate:"required"`
}

type schemaRef struct {
	SchemaName string `json:"schema_name" validate:"required"`
}

type columnRef struct {
	ColumnName string `json:"column_name" validate:"required"`
}

type recordRef struct {
	RecordID int64 `json:"record_id" validate:"required,gt=0"`
}

type renamePair struct {
	OldName string `json:"old_name" validate:"required"`
	NewName string `json:"new_name" validate:"required"`
}

type fieldSpec struct {
	FieldName string `json:"field_name"`
	FieldType string `json:"field_type"`
}

type schemasPayload struct {
	Schemas []schemaRef `json:"schemas" validate:"required,min=1,dive"`
}

// tablesPayload é o produto tabelas × schemas usado pelos lotes.
type tablesPayload struct {
	Tables  []tableRef  `json:"tables" validate:"required,min=1,dive"`
	Schemas []schemaRef `json:"schemas" validate:"required,min=1,dive"`
}

func (p tablesPayload) each(fn func(schema, table string) error) error {
	for _, t := range p.Tables {
		for _, s := range p.Schemas {
			if err := fn(s.SchemaName, t.TableName); err != nil {
				return err
			}
		}
	}
	return nil
}

type columnsPayload struct {
	tablesPayload
	Columns []columnRef `json:"columns" validate:"required,min=1,dive"`
}

func (p columnsPayload) names() []string {
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.ColumnName
	}
	return out
}

type recordsPayload struct {
	tablesPayload
	Columns []recordRef `json:"columns" validate:"required,min=1,dive"`
}

type renamePayload struct {
	tablesPayload
	Columns []renamePair `json:"columns" validate:"required,min=1,dive"`
}

// typePayload aceita o tipo em cada campo ou na lista separada fields_type.
type typePayload struct {
	tablesPayload
	Fields     []fieldSpec `json:"fields" validate:"required,min=1"`
	FieldsType []fieldSpec `json:"fields_type"`
}

type companyItem struct {
	Name  string `json:"name" validate:"required"`
	CNPJ  string `json:"cnpj" validate:"required"`
	Email string `json:"email_company" validate:"required"`
}

type companyPayload struct {
	Company []companyItem `json:"company" validate:"required,min=1,dive"`
}

type companyUpdateItem struct {
	CompanyID int     `json:"company_id" validate:"required,gt=0"`
	Name      *string `json:"name"`
	CNPJ      *string `json:"cnpj"`
	Email     *string `json:"email_company"`
}

type companyUpdatePayload struct {
	Company []companyUpdateItem `json:"company" validate:"required,min=1,dive"`
}

type tokenPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetPayload struct {
	Email string `json:"email" validate:"required,email"`
}

type resetConfirmPayload struct {
	UID         string `json:"uid" validate:"required"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type userPayload struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Image    string `json:"image"`
}

type userUpdatePayload struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

type rolePayload struct {
	CompanyID int    `json:"company_id" validate:"required,gt=0"`
	UserID    int    `json:"user_id" validate:"required,gt=0"`
	Role      string `json:"role" validate:"required"`
}
