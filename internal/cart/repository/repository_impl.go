package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	cartdomain "github.com/smallbiznis/promosync/internal/cart/domain"
	"gorm.io/gorm"
)

type repository struct{}

func Provide() cartdomain.Repository {
	return &repository{}
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*cartdomain.Cart, error) {
	var cart cartdomain.Cart
	err := db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("ShippingItems").
		Preload("Coupons").
		Preload("Adjustments").
		First(&cart, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, cart *cartdomain.Cart) error {
	return db.WithContext(ctx).Create(cart).Error
}
