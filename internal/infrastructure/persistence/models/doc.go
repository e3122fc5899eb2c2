// Package models holds the GORM row types of the invoices and invoice_config
// tables and their mapping to domain types. The domain packages carry no
// GORM tags.
package models
