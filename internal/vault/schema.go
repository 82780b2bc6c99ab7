package vault

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// User is the person whose data is being tracked and removed.
type User struct {
	bun.BaseModel `bun:"table:users"`

	UserID       int64  `bun:"user_id,pk,autoincrement"`
	FirstName    string `bun:"first_name,nullzero"`
	MiddleName   string `bun:"middle_name,nullzero"`
	LastName     string `bun:"last_name,nullzero"`
	PrimaryEmail string `bun:"primary_email,nullzero"`
	PrimaryPhone string `bun:"primary_phone,nullzero"`
	State        string `bun:"state,nullzero"` // privacy-law jurisdiction, e.g. CA
}

// Address is a current or former postal address of a user.
type Address struct {
	bun.BaseModel `bun:"table:addresses"`

	AddressID int64  `bun:"address_id,pk,autoincrement"`
	UserID    int64  `bun:"user_id"`
	Street    string `bun:"street,nullzero"`
	City      string `bun:"city,nullzero"`
	State     string `bun:"state,nullzero"`
	Zip       string `bun:"zip,nullzero"`
	IsCurrent bool   `bun:"is_current"`
}

type Email struct {
	bun.BaseModel `bun:"table:emails"`

	EmailID      int64  `bun:"email_id,pk,autoincrement"`
	UserID       int64  `bun:"user_id"`
	EmailAddress string `bun:"email_address,nullzero"`
	SourceSite   string `bun:"source_site,nullzero"`
	IsActive     bool   `bun:"is_active"`
}

type PhoneNumber struct {
	bun.BaseModel `bun:"table:phone_numbers"`

	PhoneID     int64  `bun:"phone_id,pk,autoincrement"`
	UserID      int64  `bun:"user_id"`
	PhoneNumber string `bun:"phone_number,nullzero"`
	SourceSite  string `bun:"source_site,nullzero"`
	IsActive    bool   `bun:"is_active"`
}

// Username is a social-media handle and whether it is tied to the user.
type Username struct {
	bun.BaseModel `bun:"table:usernames"`

	UsernameID int64  `bun:"username_id,pk,autoincrement"`
	UserID     int64  `bun:"user_id"`
	Username   string `bun:"username,nullzero"`
	Platform   string `bun:"platform,nullzero"`
	IsTied     bool   `bun:"is_tied"`
}

// BrokerSite is a data broker and how to get removed from it.
type BrokerSite struct {
	bun.BaseModel `bun:"table:broker_sites"`

	SiteID        int64  `bun:"site_id,pk,autoincrement"`
	Name          string `bun:"name,nullzero"`
	URL           string `bun:"url,nullzero"`
	DeletionURL   string `bun:"deletion_url,nullzero"`
	PrivacyPolicy string `bun:"privacy_policy,nullzero"`
	Contact       string `bun:"contact,nullzero"`
	Requirements  string `bun:"requirements,nullzero"`
	Notes         string `bun:"notes,nullzero"`
	LastUpdated   string `bun:"last_updated,nullzero"`
}

// OptOutRequest tracks one removal request sent to a broker.
type OptOutRequest struct {
	bun.BaseModel `bun:"table:opt_out_requests"`

	RequestID   int64  `bun:"request_id,pk,autoincrement"`
	UserID      int64  `bun:"user_id"`
	SiteID      int64  `bun:"site_id"`
	Status      string `bun:"status,nullzero"` // pending, resolved
	RequestDate string `bun:"request_date,nullzero"`
}

// CleaningRecord records when a broker was last cleaned and confirmed.
type CleaningRecord struct {
	bun.BaseModel `bun:"table:cleaning_records"`

	RecordID             int64  `bun:"record_id,pk,autoincrement"`
	SiteID               int64  `bun:"site_id,unique"`
	SiteName             string `bun:"site_name,nullzero"`
	DateCleaned          string `bun:"date_cleaned,nullzero"`
	DateConfirmedDeleted string `bun:"date_confirmed_deleted,nullzero"`
}

type tableModel struct {
	name        string
	model       any
	foreignKeys []string
}

const (
	userFK = `("user_id") REFERENCES "users" ("user_id")`
	siteFK = `("site_id") REFERENCES "broker_sites" ("site_id")`
)

// schema lists the models in creation order; referenced tables come first.
var schema = []tableModel{
	{name: "users", model: (*User)(nil)},
	{name: "addresses", model: (*Address)(nil), foreignKeys: []string{userFK}},
	{name: "emails", model: (*Email)(nil), foreignKeys: []string{userFK}},
	{name: "phone_numbers", model: (*PhoneNumber)(nil), foreignKeys: []string{userFK}},
	{name: "usernames", model: (*Username)(nil), foreignKeys: []string{userFK}},
	{name: "broker_sites", model: (*BrokerSite)(nil)},
	{name: "opt_out_requests", model: (*OptOutRequest)(nil), foreignKeys: []string{userFK, siteFK}},
	{name: "cleaning_records", model: (*CleaningRecord)(nil), foreignKeys: []string{siteFK}},
}

// SchemaTables holds the table names of the baseline schema, in creation order.
var SchemaTables = func() []string {
	names := make([]string, len(schema))
	for i, t := range schema {
		names[i] = t.name
	}
	return names
}()

// IsSchemaTable reports whether name is a baseline schema table.
func IsSchemaTable(name string) bool {
	for _, t := range schema {
		if t.name == name {
			return true
		}
	}
	return false
}

// LoadSchema creates every baseline table that does not exist yet.
// Safe to run on every launch.
func LoadSchema(ctx context.Context, db *bun.DB) error {
	for _, t := range schema {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
	}
	return nil
}
