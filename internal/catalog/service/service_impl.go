package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/promosync/internal/catalog/domain"
	"github.com/smallbiznis/promosync/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
	}
}

func (s *Service) Lookup(ctx context.Context, sku string) (*catalogdomain.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, catalogdomain.ErrInvalidSKU
	}

	var product catalogdomain.Product
	err := s.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (s *Service) Create(ctx context.Context, req catalogdomain.CreateRequest) (*catalogdomain.Product, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, catalogdomain.ErrInvalidSKU
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	if req.UnitPrice < 0 {
		return nil, catalogdomain.ErrInvalidPrice
	}

	orderable := true
	if req.Orderable != nil {
		orderable = *req.Orderable
	}

	product := catalogdomain.Product{
		ID:        s.genID.Generate(),
		SKU:       sku,
		MasterSKU: strings.TrimSpace(req.MasterSKU),
		Name:      name,
		UnitPrice: req.UnitPrice,
		Currency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		Orderable: orderable,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, catalogdomain.ErrSKUExists
		}
		return nil, err
	}

	s.log.Info("product created", zap.String("sku", product.SKU))
	return &product, nil
}
