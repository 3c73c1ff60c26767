package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID         int64
	Name       string
	CategoryID int64
	CreatedAt  pgtype.Timestamptz
}

type Category struct {
	ID        int64
	Name      string
	CreatedAt pgtype.Timestamptz
}

type Currency struct {
	ID            int64
	Code          string
	Name          string
	DecimalPlaces int32
}

type CsvImportStrategy struct {
	ID                    int64
	Name                  string
	IdentificationColumns []string
	FieldMappings         []byte
	AttributeMappings     []byte
	CreatedAt             pgtype.Timestamptz
	UpdatedAt             pgtype.Timestamptz
}

type Transfer struct {
	ID              int64
	ImportID        pgtype.UUID
	Timestamp       pgtype.Timestamptz
	Description     string
	SourceAccountID int64
	TargetAccountID int64
	Amount          int64
	CurrencyID      int64
	Attributes      []byte
}
