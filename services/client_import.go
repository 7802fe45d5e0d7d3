package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"visadesk-backend/models"
	"visadesk-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CSVRow is one CSV record keyed by its header
type CSVRow map[string]string

// ClientStore is what the importer needs from client persistence
type ClientStore interface {
	ExistsByEmail(ctx context.Context, agencyID uuid.UUID, email string) (bool, error)
	Create(ctx context.Context, client *models.Client) error
}

// ImportReport summarises one CSV import
type ImportReport struct {
	ImportedCount int      `json:"importedCount"`
	ErrorCount    int      `json:"errorCount"`
	Errors        []string `json:"errors"`
}

// ClientImportRecord is a CSV row mapped onto client fields, before validation
type ClientImportRecord struct {
	ClientCode          string
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	DateOfBirth         string
	Gender              string
	Address             string
	City                string
	State               string
	ZipCode             string
	PassportNumber      string
	PassportCountry     string
	VisaType            string
	VisaApplicationDate string
	VisaExpirationDate  string
	SpecialRequirements []string
	CurrentApplications []string
	TravelHistory       []string
	EmergencyContact    models.EmergencyContact
}

// Accepted headers per field: the human-readable form and the camelCase form
var (
	colClientID            = []string{"Client ID", "clientId"}
	colName                = []string{"Name", "name"}
	colFirstName           = []string{"First Name", "firstName"}
	colLastName            = []string{"Last Name", "lastName"}
	colEmail               = []string{"Email", "email"}
	colPhone               = []string{"Phone", "phone"}
	colDateOfBirth         = []string{"Date of Birth", "dateOfBirth"}
	colGender              = []string{"Gender", "gender"}
	colAddress             = []string{"Address", "address"}
	colCity                = []string{"City", "city"}
	colState               = []string{"State", "state"}
	colZipCode             = []string{"Zip Code", "zipCode"}
	colPassportNumber      = []string{"Passport Number", "passportNumber"}
	colPassportCountry     = []string{"Passport Country", "passportCountry"}
	colVisaType            = []string{"Visa Type", "visaType"}
	colVisaApplicationDate = []string{"Visa Application Date", "visaApplicationDate", "Application Date", "applicationDate"}
	colVisaExpirationDate  = []string{"Visa Expiration Date", "visaExpirationDate"}
	colSpecialRequirements = []string{"Special Requirements", "specialRequirements"}
	colCurrentApplications = []string{"Current Applications", "currentApplications"}
	colTravelHistory       = []string{"Travel History", "travelHistory"}
	colEmergencyName       = []string{"Emergency Contact Name", "emergencyContactName"}
	colEmergencyPhone      = []string{"Emergency Contact Phone", "emergencyContactPhone"}
	colEmergencyRelation   = []string{"Emergency Contact Relationship", "emergencyContactRelationship"}
)

// first returns the first non-empty value among the given headers
func (r CSVRow) first(headers []string) string {
	for _, h := range headers {
		if v := strings.TrimSpace(r[h]); v != "" {
			return v
		}
	}
	return ""
}

// ReadCSVRows parses a CSV with a header line into rows keyed by header.
// Blank lines are skipped.
func ReadCSVRows(r io.Reader) ([]CSVRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableCSV, err)
	}
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		headers[i] = h
	}

	var rows []CSVRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableCSV, err)
		}
		if isBlankRecord(record) {
			continue
		}

		row := make(CSVRow, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// NormalizeGender maps free text onto a canonical gender value, or "" when it is not one
func NormalizeGender(raw string) string {
	g := strings.ToLower(strings.TrimSpace(raw))
	if g == "prefer not to say" {
		return models.GenderPreferNotToSay
	}
	if models.IsCanonicalGender(g) {
		return g
	}
	return ""
}

// SplitList splits semicolon-separated text, trimming tokens and dropping empty ones
func SplitList(raw string) []string {
	items := []string{}
	for _, token := range strings.Split(raw, ";") {
		if token = strings.TrimSpace(token); token != "" {
			items = append(items, token)
		}
	}
	return items
}

// MapClientRecord maps a CSV row onto client fields without validating them
func MapClientRecord(row CSVRow) ClientImportRecord {
	rec := ClientImportRecord{
		ClientCode:          row.first(colClientID),
		FirstName:           row.first(colFirstName),
		LastName:            row.first(colLastName),
		Email:               row.first(colEmail),
		Phone:               row.first(colPhone),
		DateOfBirth:         row.first(colDateOfBirth),
		Gender:              NormalizeGender(row.first(colGender)),
		Address:             row.first(colAddress),
		City:                row.first(colCity),
		State:               row.first(colState),
		ZipCode:             row.first(colZipCode),
		PassportNumber:      row.first(colPassportNumber),
		PassportCountry:     row.first(colPassportCountry),
		VisaType:            row.first(colVisaType),
		VisaApplicationDate: row.first(colVisaApplicationDate),
		VisaExpirationDate:  row.first(colVisaExpirationDate),
		SpecialRequirements: SplitList(row.first(colSpecialRequirements)),
		CurrentApplications: SplitList(row.first(colCurrentApplications)),
		TravelHistory:       SplitList(row.first(colTravelHistory)),
		EmergencyContact: models.EmergencyContact{
			Name:         row.first(colEmergencyName),
			Phone:        row.first(colEmergencyPhone),
			Relationship: row.first(colEmergencyRelation),
		},
	}

	if rec.FirstName == "" && rec.LastName == "" {
		if parts := strings.Fields(row.first(colName)); len(parts) > 0 {
			rec.FirstName = parts[0]
			rec.LastName = strings.Join(parts[1:], " ")
			if rec.LastName == "" {
				rec.LastName = models.DefaultClientLastName
			}
		}
	}

	return rec
}

type requiredField struct {
	name  string
	value string
}

func missingFields(fields ...requiredField) error {
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequiredFields, strings.Join(missing, ", "))
	}
	return nil
}

// Validate runs the required-field checks in order: contact details, personal details, then
// passport and visa details. Only the first failing group is reported.
func (rec ClientImportRecord) Validate() error {
	if err := missingFields(
		requiredField{"firstName", rec.FirstName},
		requiredField{"lastName", rec.LastName},
		requiredField{"email", rec.Email},
		requiredField{"phone", rec.Phone},
	); err != nil {
		return err
	}
	if err := missingFields(
		requiredField{"dateOfBirth", rec.DateOfBirth},
		requiredField{"gender", rec.Gender},
	); err != nil {
		return err
	}
	return missingFields(
		requiredField{"passportNumber", rec.PassportNumber},
		requiredField{"passportCountry", rec.PassportCountry},
		requiredField{"visaType", rec.VisaType},
		requiredField{"visaApplicationDate", rec.VisaApplicationDate},
	)
}

func parseOptionalDate(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %q", ErrInvalidClientDate, name, raw)
	}
	return &t, nil
}

// ToClient builds the client entity, parsing the date columns
func (rec ClientImportRecord) ToClient(agencyID, userID uuid.UUID) (*models.Client, error) {
	dob, err := parseOptionalDate("dateOfBirth", rec.DateOfBirth)
	if err != nil {
		return nil, err
	}
	applied, err := parseOptionalDate("visaApplicationDate", rec.VisaApplicationDate)
	if err != nil {
		return nil, err
	}
	expires, err := parseOptionalDate("visaExpirationDate", rec.VisaExpirationDate)
	if err != nil {
		return nil, err
	}

	return &models.Client{
		AgencyID:            agencyID,
		CreatedByUserID:     userID,
		ClientCode:          rec.ClientCode,
		FirstName:           rec.FirstName,
		LastName:            rec.LastName,
		Email:               rec.Email,
		Phone:               rec.Phone,
		DateOfBirth:         dob,
		Gender:              rec.Gender,
		Address:             rec.Address,
		City:                rec.City,
		State:               rec.State,
		ZipCode:             rec.ZipCode,
		PassportNumber:      rec.PassportNumber,
		PassportCountry:     rec.PassportCountry,
		VisaType:            rec.VisaType,
		VisaApplicationDate: applied,
		VisaExpirationDate:  expires,
		SpecialRequirements: rec.SpecialRequirements,
		CurrentApplications: rec.CurrentApplications,
		TravelHistory:       rec.TravelHistory,
		EmergencyContact:    rec.EmergencyContact,
		Status:              models.ClientStatusActive,
	}, nil
}

// ClientImporter turns CSV rows into persisted clients one row at a time
type ClientImporter struct {
	store  ClientStore
	logger *zap.Logger
}

func NewClientImporter(store ClientStore, logger *zap.Logger) *ClientImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientImporter{store: store, logger: logger}
}

// ImportClients processes rows in file order. A failing row is reported and skipped;
// rows already saved stay saved. The returned error is non-nil only when ctx is
// cancelled, in which case the report covers the rows attempted so far.
func (im *ClientImporter) ImportClients(ctx context.Context, agencyID, userID uuid.UUID, rows []CSVRow) (ImportReport, error) {
	report := ImportReport{Errors: []string{}}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			im.logger.Warn("Client import interrupted",
				zap.Int("processed", i),
				zap.Int("remaining", len(rows)-i))
			return report, err
		}

		// header is line 1
		line := i + 2
		rec := MapClientRecord(row)

		if err := im.importRow(ctx, agencyID, userID, rec); err != nil {
			report.ErrorCount++
			report.Errors = append(report.Errors, rowError(line, rec.Email, err))
			im.logger.Debug("Client row rejected",
				zap.Int("line", line),
				zap.String("email", rec.Email),
				zap.Error(err))
			continue
		}
		report.ImportedCount++
	}

	im.logger.Info("Client import completed",
		zap.String("agency_id", agencyID.String()),
		zap.Int("imported", report.ImportedCount),
		zap.Int("errors", report.ErrorCount))
	return report, nil
}

func (im *ClientImporter) importRow(ctx context.Context, agencyID, userID uuid.UUID, rec ClientImportRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	client, err := rec.ToClient(agencyID, userID)
	if err != nil {
		return err
	}

	exists, err := im.store.ExistsByEmail(ctx, agencyID, rec.Email)
	if err != nil {
		return fmt.Errorf("failed to check for existing client: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, rec.Email)
	}

	if err := im.store.Create(ctx, client); err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

func rowError(line int, email string, err error) string {
	if email != "" {
		return fmt.Sprintf("Row %d (%s): %v", line, email, err)
	}
	return fmt.Sprintf("Row %d: %v", line, err)
}

// IsCSVReadError reports whether err came from parsing the file rather than a row
func IsCSVReadError(err error) bool {
	return errors.Is(err, ErrEmptyCSV) || errors.Is(err, ErrUnreadableCSV)
}
