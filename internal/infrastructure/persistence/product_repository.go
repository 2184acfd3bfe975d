package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/enrichment/backend/internal/domain/catalog"
	"github.com/enrichment/backend/internal/domain/enrichment"
	"github.com/enrichment/backend/internal/domain/shared"
	"github.com/enrichment/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository and enrichment.EntryWriter using GORM
type GormProductRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db, now: time.Now}
}

func orderBySequence(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC")
}

func (r *GormProductRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Variants", orderBySequence).Preload("PublicCategories")
}

// FindByID finds a product with its variants by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.withRelations(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Find returns products matching the query in the requested order
func (r *GormProductRepository) Find(ctx context.Context, q catalog.ProductQuery) ([]catalog.Product, error) {
	query := r.applyQuery(r.db.WithContext(ctx).Model(&models.ProductModel{}), q)

	switch q.Order {
	case catalog.OrderOldestSyncFirst:
		query = query.Order("CASE WHEN enrichment_last_sync IS NULL THEN 0 ELSE 1 END").
			Order("enrichment_last_sync ASC")
	default:
		query = query.Order("created_at DESC")
	}
	query = query.Order("id ASC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var rows []models.ProductModel
	if err := r.withRelations(query).Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Count counts products matching the query, ignoring Limit and Order
func (r *GormProductRepository) Count(ctx context.Context, q catalog.ProductQuery) (int64, error) {
	var count int64
	if err := r.applyQuery(r.db.WithContext(ctx).Model(&models.ProductModel{}), q).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyQuery translates a product query into WHERE clauses
func (r *GormProductRepository) applyQuery(query *gorm.DB, q catalog.ProductQuery) *gorm.DB {
	if len(q.IDs) > 0 {
		query = query.Where("products.id IN ?", q.IDs)
	}
	if len(q.Statuses) > 0 {
		query = query.Where("products.enrichment_status IN ?", q.Statuses)
	}
	if q.RequireBarcode {
		query = query.Where("EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = products.id AND TRIM(COALESCE(pv.barcode, '')) <> '')")
	}
	if q.SyncedBefore != nil {
		if q.IncludeNeverSynced {
			query = query.Where("(products.enrichment_last_sync < ? OR products.enrichment_last_sync IS NULL)", *q.SyncedBefore)
		} else {
			query = query.Where("products.enrichment_last_sync < ?", *q.SyncedBefore)
		}
	}
	if q.ExternalCategory != "" {
		query = query.Where("products.icecat_category = ?", q.ExternalCategory)
	}
	return query
}

// Save creates or updates a product and its variants
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductVariantModel{}).Error; err != nil {
			return err
		}
		if len(model.Variants) > 0 {
			if err := tx.Create(&model.Variants).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductPublicCategoryModel{}).Error; err != nil {
			return err
		}
		if len(model.PublicCategories) > 0 {
			if err := tx.Create(&model.PublicCategories).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveSpecifications replaces the stored raw specifications
func (r *GormProductRepository) SaveSpecifications(ctx context.Context, id uuid.UUID, specs []catalog.Specification) error {
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"specifications": models.EncodeSpecifications(specs),
			"updated_at":     r.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AssignCategories applies a category assignment to many products at once and
// returns the number of products it touched
func (r *GormProductRepository) AssignCategories(ctx context.Context, ids []uuid.UUID, a catalog.CategoryAssignment) (int64, error) {
	if len(ids) == 0 || a.IsEmpty() {
		return 0, nil
	}
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uuid.UUID
		if err := tx.Model(&models.ProductModel{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
			return err
		}
		if len(existing) == 0 {
			return nil
		}
		affected = int64(len(existing))

		updates := map[string]any{"updated_at": r.now()}
		if a.InternalCategoryID != nil {
			updates["category_id"] = *a.InternalCategoryID
		}
		if a.Publish {
			updates["is_published"] = true
		}
		if err := tx.Model(&models.ProductModel{}).Where("id IN ?", existing).Updates(updates).Error; err != nil {
			return err
		}

		if a.PublicCategoryID != nil {
			links := make([]models.ProductPublicCategoryModel, len(existing))
			for i, id := range existing {
				links[i] = models.ProductPublicCategoryModel{ProductID: id, CategoryID: *a.PublicCategoryID}
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// FindImages returns the extra gallery images of a product ordered by sequence
func (r *GormProductRepository) FindImages(ctx context.Context, productID uuid.UUID) ([]catalog.ProductImage, error) {
	var rows []models.ProductImageModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	images := make([]catalog.ProductImage, len(rows))
	for i := range rows {
		images[i] = *rows[i].ToDomain()
	}
	return images, nil
}

// MarkPending durably sets the entry status to pending
func (r *GormProductRepository) MarkPending(ctx context.Context, id uuid.UUID) error {
	return r.updateTracking(ctx, id, map[string]any{
		"enrichment_status": catalog.EnrichmentStatusPending,
	})
}

// RecordFailure stores an unexpected error on the entry
func (r *GormProductRepository) RecordFailure(ctx context.Context, id uuid.UUID, message string, at time.Time) error {
	return r.updateTracking(ctx, id, map[string]any{
		"enrichment_status":    catalog.EnrichmentStatusError,
		"enrichment_last_sync": at,
		"enrichment_error":     message,
	})
}

func (r *GormProductRepository) updateTracking(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = r.now()
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Commit applies the whole write-set in a single transaction.
// Any failure rolls back every change, including brand, gallery and attribute rows.
func (r *GormProductRepository) Commit(ctx context.Context, id uuid.UUID, ws *enrichment.WriteSet) error {
	if ws == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.ProductModel
		if err := r.withRelations(tx).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		product := model.ToDomain()
		ws.Apply(product)

		if ws.BrandName != "" {
			brandID, err := findOrCreateBrand(tx, ws.BrandName)
			if err != nil {
				return fmt.Errorf("resolve brand: %w", err)
			}
			product.BrandID = &brandID
		}

		product.Touch(r.now())
		product.IncrementVersion()
		updated := models.ProductModelFromDomain(product)
		if err := tx.Omit(clause.Associations).Save(updated).Error; err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		if ws.Category != nil && ws.Category.PublicCategoryID != nil {
			link := models.ProductPublicCategoryModel{ProductID: id, CategoryID: *ws.Category.PublicCategoryID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return fmt.Errorf("link public category: %w", err)
			}
		}

		if ws.ReplaceGallery {
			if err := replaceGallery(tx, id, ws.GallerySource, ws.Gallery); err != nil {
				return fmt.Errorf("replace gallery: %w", err)
			}
		}

		if ws.ReplaceAttributes {
			if err := replaceManagedAttributes(tx, id, ws.Attributes); err != nil {
				return fmt.Errorf("replace attributes: %w", err)
			}
		}
		return nil
	})
}

func findOrCreateBrand(tx *gorm.DB, name string) (uuid.UUID, error) {
	brand, err := catalog.NewBrand(name)
	if err != nil {
		return uuid.Nil, err
	}
	var existing models.BrandModel
	err = tx.Where("name = ?", brand.Name).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}
	model := models.BrandModelFromDomain(brand)
	if err := tx.Create(model).Error; err != nil {
		return uuid.Nil, err
	}
	return model.ID, nil
}

// replaceGallery removes the images a source manages and inserts the new set
func replaceGallery(tx *gorm.DB, productID uuid.UUID, source enrichment.SourceID, gallery []enrichment.GalleryImage) error {
	if err := tx.Where("product_id = ? AND source = ?", productID, string(source)).
		Delete(&models.ProductImageModel{}).Error; err != nil {
		return err
	}
	if len(gallery) == 0 {
		return nil
	}
	rows := make([]models.ProductImageModel, len(gallery))
	for i, img := range gallery {
		rows[i] = *models.ProductImageModelFromDomain(&catalog.ProductImage{
			BaseEntity: shared.NewBaseEntity(),
			ProductID:  productID,
			Name:       img.Name,
			StorageKey: img.StorageKey,
			SourceURL:  img.SourceURL,
			Source:     string(source),
			Sequence:   img.Sequence,
		})
	}
	return tx.Create(&rows).Error
}

// replaceManagedAttributes drops the product's managed attribute lines and
// recreates them from groups; lines of manual attributes are kept
func replaceManagedAttributes(tx *gorm.DB, productID uuid.UUID, groups []enrichment.AttributeGroup) error {
	managedAttrs := func() *gorm.DB {
		return tx.Model(&models.AttributeModel{}).Select("id").Where("name LIKE ?", catalog.ManagedAttributePrefix+"%")
	}
	lineIDs := tx.Model(&models.ProductAttributeLineModel{}).Select("id").
		Where("product_id = ? AND attribute_id IN (?)", productID, managedAttrs())

	if err := tx.Where("line_id IN (?)", lineIDs).Delete(&models.ProductAttributeLineValueModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ? AND attribute_id IN (?)", productID, managedAttrs()).
		Delete(&models.ProductAttributeLineModel{}).Error; err != nil {
		return err
	}

	for _, group := range groups {
		if len(group.Values) == 0 {
			continue
		}
		attrID, err := findOrCreateAttribute(tx, group.Name)
		if err != nil {
			return err
		}
		line := models.ProductAttributeLineModel{ProductID: productID, AttributeID: attrID}
		line.FromDomainBaseEntity(shared.NewBaseEntity())
		if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
			return err
		}
		seen := make(map[uuid.UUID]bool, len(group.Values))
		for _, value := range group.Values {
			valueID, err := findOrCreateAttributeValue(tx, attrID, value)
			if err != nil {
				return err
			}
			if seen[valueID] {
				continue
			}
			seen[valueID] = true
			if err := tx.Create(&models.ProductAttributeLineValueModel{LineID: line.ID, ValueID: valueID}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func findOrCreateAttribute(tx *gorm.DB, name string) (uuid.UUID, error) {
	attr, err := catalog.NewAttribute(name)
	if err != nil {
		return uuid.Nil, err
	}
	var existing models.AttributeModel
	err = tx.Where("name = ?", attr.Name).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}
	model := models.AttributeModel{Name: attr.Name}
	model.FromDomainBaseEntity(attr.BaseEntity)
	if err := tx.Create(&model).Error; err != nil {
		return uuid.Nil, err
	}
	return model.ID, nil
}

func findOrCreateAttributeValue(tx *gorm.DB, attributeID uuid.UUID, name string) (uuid.UUID, error) {
	var existing models.AttributeValueModel
	err := tx.Where("attribute_id = ? AND name = ?", attributeID, name).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}
	model := models.AttributeValueModel{AttributeID: attributeID, Name: name}
	model.FromDomainBaseEntity(shared.NewBaseEntity())
	if err := tx.Create(&model).Error; err != nil {
		return uuid.Nil, err
	}
	return model.ID, nil
}

// Ensure GormProductRepository implements the catalog and enrichment ports
var (
	_ catalog.ProductRepository  = (*GormProductRepository)(nil)
	_ enrichment.EntryRepository = (*GormProductRepository)(nil)
)
