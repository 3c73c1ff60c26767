package strategy

import "fmt"

// TransferField names the Transfer attribute a FieldMapping populates.
type TransferField string

const (
	FieldSourceAccount TransferField = "SOURCE_ACCOUNT"
	FieldTargetAccount TransferField = "TARGET_ACCOUNT"
	FieldTimestamp     TransferField = "TIMESTAMP"
	FieldDescription   TransferField = "DESCRIPTION"
	FieldAmount        TransferField = "AMOUNT"
	FieldCurrency      TransferField = "CURRENCY"
	FieldTimezone      TransferField = "TIMEZONE"
)

// RequiredFields are the fields a strategy must map before it can map rows.
// The order is the order MapRow checks them in.
var RequiredFields = []TransferField{
	FieldSourceAccount,
	FieldTargetAccount,
	FieldTimestamp,
	FieldDescription,
	FieldAmount,
	FieldCurrency,
}

// AllFields lists every TransferField, required ones first.
var AllFields = append(append([]TransferField{}, RequiredFields...), FieldTimezone)

// Valid reports whether f is one of the known fields.
func (f TransferField) Valid() bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// ParseTransferField converts a wire name into a TransferField.
func ParseTransferField(s string) (TransferField, error) {
	f := TransferField(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown transfer field %q", s)
	}
	return f, nil
}

// Kind discriminates the FieldMapping variants. The string values are used
// on the wire by both the storage codec and the export document.
type Kind string

const (
	KindHardCodedAccount  Kind = "HardCodedAccount"
	KindAccountLookup     Kind = "AccountLookup"
	KindRegexAccount      Kind = "RegexAccount"
	KindDateTimeParsing   Kind = "DateTimeParsing"
	KindDirectColumn      Kind = "DirectColumn"
	KindAmountParsing     Kind = "AmountParsing"
	KindHardCodedCurrency Kind = "HardCodedCurrency"
	KindCurrencyLookup    Kind = "CurrencyLookup"
	KindHardCodedTimezone Kind = "HardCodedTimezone"
	KindTimezoneLookup    Kind = "TimezoneLookup"
)

// allowedFields lists the TransferFields each kind may populate.
var allowedFields = map[Kind][]TransferField{
	KindHardCodedAccount:  {FieldSourceAccount, FieldTargetAccount},
	KindAccountLookup:     {FieldSourceAccount, FieldTargetAccount},
	KindRegexAccount:      {FieldSourceAccount, FieldTargetAccount},
	KindDateTimeParsing:   {FieldTimestamp},
	KindDirectColumn:      {FieldDescription},
	KindAmountParsing:     {FieldAmount},
	KindHardCodedCurrency: {FieldCurrency},
	KindCurrencyLookup:    {FieldCurrency},
	KindHardCodedTimezone: {FieldTimezone},
	KindTimezoneLookup:    {FieldTimezone},
}

// Supports reports whether kind k may populate field f.
func (k Kind) Supports(f TransferField) bool {
	for _, allowed := range allowedFields[k] {
		if allowed == f {
			return true
		}
	}
	return false
}
