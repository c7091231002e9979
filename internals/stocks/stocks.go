package stocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrStockNotFound = errors.New("stock not found")

type StockService struct {
	DB  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *StockService {
	return &StockService{DB: db, now: time.Now}
}

// List returns the stocks matching f, best total score first.
func (s *StockService) List(ctx context.Context, f Filter) ([]Stock, error) {
	q := s.DB.WithContext(ctx).Model(&Stock{})
	if f.Sector != "" && !strings.EqualFold(f.Sector, "all") {
		q = q.Where("LOWER(sector) = ?", strings.ToLower(f.Sector))
	}
	if f.MinScore > 0 {
		q = q.Where("total_score >= ?", f.MinScore)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(symbol) LIKE ? OR LOWER(company) LIKE ?", like, like)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	list := make([]Stock, 0)
	if err := q.Order("total_score DESC").Order("symbol ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("error listing stocks: %w", err)
	}
	return list, nil
}

// All returns the whole universe in pool order.
func (s *StockService) All(ctx context.Context) ([]Stock, error) {
	list := make([]Stock, 0)
	if err := s.DB.WithContext(ctx).Order("symbol ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("error loading stocks: %w", err)
	}
	return list, nil
}

func (s *StockService) Get(ctx context.Context, id string) (Stock, error) {
	var stock Stock
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return stock, ErrStockNotFound
	}
	return stock, err
}

func (s *StockService) BySymbol(ctx context.Context, symbol string) (Stock, error) {
	var stock Stock
	err := s.DB.WithContext(ctx).Where("symbol = ?", strings.ToUpper(symbol)).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return stock, ErrStockNotFound
	}
	return stock, err
}

// ByIDs returns the live rows for ids keyed by id.
func (s *StockService) ByIDs(ctx context.Context, ids []string) (map[string]Stock, error) {
	out := make(map[string]Stock, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []Stock
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, st := range list {
		out[st.ID] = st
	}
	return out, nil
}

func (s *StockService) Sectors(ctx context.Context) ([]string, error) {
	sectors := make([]string, 0)
	err := s.DB.WithContext(ctx).Model(&Stock{}).Distinct("sector").Order("sector").Pluck("sector", &sectors).Error
	return sectors, err
}

// Upsert seeds or replaces stocks keyed by symbol.
func (s *StockService) Upsert(ctx context.Context, list []Stock) error {
	for i := range list {
		list[i].Symbol = strings.ToUpper(list[i].Symbol)
		if list[i].ID == "" {
			list[i].ID = uuid.NewString()
		}
		if list[i].LastUpdated.IsZero() {
			list[i].LastUpdated = s.now()
		}
	}
	if len(list) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		UpdateAll: true,
	}).Create(&list).Error
}

// ApplyUpdate writes u onto the live row for its symbol, creating the row for
// a symbol seen for the first time.
func (s *StockService) ApplyUpdate(ctx context.Context, u ScoreUpdate) (Stock, error) {
	if u.Symbol == "" {
		return Stock{}, fmt.Errorf("score update without symbol")
	}

	var stock Stock
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("symbol = ?", strings.ToUpper(u.Symbol)).First(&stock).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if u.Company == "" {
				return fmt.Errorf("new symbol %s needs a company name", u.Symbol)
			}
			stock = Stock{ID: uuid.NewString(), Symbol: strings.ToUpper(u.Symbol)}
		case err != nil:
			return err
		}

		u.applyTo(&stock)
		stock.LastUpdated = s.now()
		return tx.Save(&stock).Error
	})
	if err != nil {
		return Stock{}, fmt.Errorf("error applying score update for %s: %w", u.Symbol, err)
	}
	return stock, nil
}

func (u ScoreUpdate) applyTo(s *Stock) {
	if u.Company != "" {
		s.Company = u.Company
	}
	if u.Sector != "" {
		s.Sector = u.Sector
	}
	setFloat := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setFloat(&s.TotalScore, u.TotalScore)
	setFloat(&s.GrowthScore, u.GrowthScore)
	setFloat(&s.ValueScore, u.ValueScore)
	setFloat(&s.RiskScore, u.RiskScore)
	setFloat(&s.Price, u.Price)
	setFloat(&s.Change, u.Change)
	setFloat(&s.ChangePercent, u.ChangePercent)
	setFloat(&s.MarketCap, u.MarketCap)
	if u.Volume != nil {
		s.Volume = *u.Volume
	}
}
