package http

import (
	"context"
	"encoding/json"

	"github.com/charismabi/handson/internal/authapi"
	"github.com/charismabi/handson/internal/clipping"
	"github.com/charismabi/handson/internal/company"
	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/files"
	"github.com/charismabi/handson/internal/ident"
	"github.com/charismabi/handson/internal/provision"
	"github.com/charismabi/handson/internal/register"
)

// Interfaces consumidas pelos handlers; as implementações vivem nos pacotes
// de domínio e os testes usam stubs.

type ProvisionService interface {
	CreateSchema(ctx context.Context, name string) (string, error)
	CreateTable(ctx context.Context, schema, table string) (ident.Ref, error)
	AddColumns(ctx context.Context, schema, table string, typ provision.ColumnType, names []string) ([]string, error)
	RenameColumn(ctx context.Context, schema, table, oldName, newName string) error
	ChangeColumnType(ctx context.Context, schema, table, column string, typ provision.ColumnType) error
	MigrateCompanyTable(ctx context.Context) error
}

type RegisterService interface {
	MarkDeleted(ctx context.Context, schema, table string, id int64) (register.Result, error)
	Restore(ctx context.Context, schema, table string, id int64) (register.Result, error)
	List(ctx context.Context, schema, table string, f register.Filter, page db.Page) (db.Listing[register.Record], error)
}

type CompanyService interface {
	Create(ctx context.Context, in company.CreateInput) (int, error)
	Update(ctx context.Context, id int, in company.UpdateInput) error
	Activate(ctx context.Context, id int) error
	Deactivate(ctx context.Context, id int) error
	ListActive(ctx context.Context, page db.Page) (db.Listing[company.Company], error)
	ListInactive(ctx context.Context, page db.Page) (db.Listing[company.Company], error)
	AssociateTable(ctx context.Context, schema, table string, companyID int) (int64, error)
	TablesByCompany(ctx context.Context, schema string, companyID int, page db.Page) (db.Listing[company.Table], error)
}

type ClippingService interface {
	ListActive(ctx context.Context, page db.Page) (db.Listing[clipping.Company], error)
	ListInactive(ctx context.Context, page db.Page) (db.Listing[clipping.Company], error)
	TransferCompany(ctx context.Context, name string) (int, error)
}

type FileService interface {
	UploadClipping(ctx context.Context, schema, table string, clippingCompanyID int, items []files.Item) (files.UploadReport, error)
	UploadHandsOn(ctx context.Context, schema, table string, companyID int, items []files.Item) (files.UploadReport, error)
	Combined(ctx context.Context, schema, table string, page db.Page) (db.Listing[files.CombinedRow], error)
	Export(ctx context.Context, schema, table, start, end string) (files.Workbook, error)
}

type ManagerService interface {
	DeleteTable(ctx context.Context, schema, table string) (ident.Ref, error)
	DeleteSchema(ctx context.Context, schema string) (string, error)
	DeleteColumn(ctx context.Context, schema, table, column string) (string, error)
}

type AccountService interface {
	Token(ctx context.Context, email, password string) (json.RawMessage, error)
	CreateUser(ctx context.Context, bearer string, u authapi.User) (json.RawMessage, error)
	UpdateUser(ctx context.Context, bearer, userID string, u authapi.User) (json.RawMessage, error)
	DeleteUser(ctx context.Context, bearer, userID string) (json.RawMessage, error)
	CreateRole(ctx context.Context, bearer string, r authapi.Role) (json.RawMessage, error)
	ResetPassword(ctx context.Context, email string) (json.RawMessage, error)
	ConfirmReset(ctx context.Context, uid, token, newPassword string) (json.RawMessage, error)
}
