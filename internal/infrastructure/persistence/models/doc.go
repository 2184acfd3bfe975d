// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel
//   - catalog.go: products, variants, categories, brands, gallery images, attributes
//   - enrichment.go: field mapping rules, sync logs, category mappings, config parameters
package models
