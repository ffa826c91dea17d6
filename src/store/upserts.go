package store

import (
	"context"
	"fmt"

	"github.com/username/stationetl/src/database"
	"github.com/username/stationetl/src/models"
)

const upsertDeliveredSQL = `
INSERT INTO delivered (pv, sellin_code, delivery_date, article_code, quantity, updated_at)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (pv, sellin_code, delivery_date) DO UPDATE SET
	article_code = excluded.article_code,
	quantity = excluded.quantity,
	updated_at = excluded.updated_at
WHERE delivered.article_code IS NOT excluded.article_code
	OR delivered.quantity IS NOT excluded.quantity`

func (s *Store) UpsertDelivered(ctx context.Context, r models.DeliveredRecord) (models.Outcome, error) {
	return s.merge(ctx, "delivered", upsertDeliveredSQL,
		r.StationCode, r.SellInCode, database.Date(r.DeliveryDate), r.ArticleCode,
		database.Dec(r.Quantity, database.ScaleQuantity))
}

const upsertOrderedSQL = `
INSERT INTO ordered (pv, article_code, order_date, quantity, updated_at)
VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (pv, article_code, order_date) DO UPDATE SET
	quantity = excluded.quantity,
	updated_at = excluded.updated_at
WHERE ordered.quantity IS NOT excluded.quantity`

func (s *Store) UpsertOrdered(ctx context.Context, r models.OrderedRecord) (models.Outcome, error) {
	return s.merge(ctx, "ordered", upsertOrderedSQL,
		r.StationCode, r.ArticleCode, database.Date(r.OrderDate),
		database.Dec(r.Quantity, database.ScaleQuantity))
}

// promoColumns whitelists the counter column written for each promo type.
var promoColumns = map[models.PromoType]string{
	models.PromoBaptisms:           "baptisms",
	models.PromoActiveTransactions: "active_transactions",
	models.PromoEligible:           "eligible",
	models.PromoRedeemed:           "redeemed",
}

// PromoColumn reports the column a promo type writes, and whether the type is known.
func PromoColumn(t models.PromoType) (string, bool) {
	col, ok := promoColumns[t]
	return col, ok
}

// UpsertPromoCounter writes one counter of a promo-card record; the other
// three counters of the row are left untouched.
func (s *Store) UpsertPromoCounter(ctx context.Context, r models.PromoCounter) (models.Outcome, error) {
	col, ok := promoColumns[r.Type]
	if !ok {
		return models.OutcomeError, fmt.Errorf("unknown promo type %q", r.Type)
	}
	query := fmt.Sprintf(`
INSERT INTO promo_cards (pv, promo_date, %[1]s, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (pv, promo_date) DO UPDATE SET
	%[1]s = excluded.%[1]s,
	updated_at = excluded.updated_at
WHERE promo_cards.%[1]s IS NOT excluded.%[1]s`, col)
	return s.merge(ctx, "promo_cards."+col, query, r.StationCode, database.Date(r.PromoDate), r.Total)
}

const upsertTradingAreaSQL = `
INSERT INTO trading_area (area_date, pv, article_code, brand, address, is_main, self_price, served_price, closing_price, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (area_date, pv, article_code, brand, address) DO UPDATE SET
	is_main = excluded.is_main,
	self_price = excluded.self_price,
	served_price = excluded.served_price,
	closing_price = excluded.closing_price,
	updated_at = excluded.updated_at
WHERE trading_area.is_main IS NOT excluded.is_main
	OR trading_area.self_price IS NOT excluded.self_price
	OR trading_area.served_price IS NOT excluded.served_price
	OR trading_area.closing_price IS NOT excluded.closing_price`

func (s *Store) UpsertTradingArea(ctx context.Context, r models.TradingAreaRecord) (models.Outcome, error) {
	return s.merge(ctx, "trading_area", upsertTradingAreaSQL,
		database.Date(r.AreaDate), r.StationCode, r.ArticleCode, r.Brand, r.Address, r.IsMain,
		database.NullDec(r.SelfPrice, database.ScalePrice),
		database.NullDec(r.ServedPrice, database.ScalePrice),
		database.NullDec(r.ClosingPrice, database.ScalePrice))
}

const upsertPriceListSQL = `
INSERT INTO price_list (list_date, pv, article_code, served_price, served_discount, self_price, self_discount,
	opt_price, opt_discount, cutoff_quantity, ordered_quantity, notes, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (list_date, pv, article_code) DO UPDATE SET
	served_price = excluded.served_price,
	served_discount = excluded.served_discount,
	self_price = excluded.self_price,
	self_discount = excluded.self_discount,
	opt_price = excluded.opt_price,
	opt_discount = excluded.opt_discount,
	cutoff_quantity = excluded.cutoff_quantity,
	ordered_quantity = excluded.ordered_quantity,
	notes = excluded.notes,
	updated_at = excluded.updated_at
WHERE price_list.served_price IS NOT excluded.served_price
	OR price_list.served_discount IS NOT excluded.served_discount
	OR price_list.self_price IS NOT excluded.self_price
	OR price_list.self_discount IS NOT excluded.self_discount
	OR price_list.opt_price IS NOT excluded.opt_price
	OR price_list.opt_discount IS NOT excluded.opt_discount
	OR price_list.cutoff_quantity IS NOT excluded.cutoff_quantity
	OR price_list.ordered_quantity IS NOT excluded.ordered_quantity
	OR price_list.notes IS NOT excluded.notes`

func (s *Store) UpsertPriceList(ctx context.Context, r models.PriceListRecord) (models.Outcome, error) {
	return s.merge(ctx, "price_list", upsertPriceListSQL,
		database.Date(r.ListDate), r.StationCode, r.ArticleCode,
		database.NullDec(r.ServedPrice, database.ScalePrice),
		database.NullDec(r.ServedDiscount, database.ScalePrice),
		database.NullDec(r.SelfPrice, database.ScalePrice),
		database.NullDec(r.SelfDiscount, database.ScalePrice),
		database.NullDec(r.OptPrice, database.ScalePrice),
		database.NullDec(r.OptDiscount, database.ScalePrice),
		database.NullDec(r.CutoffQuantity, database.ScaleQuantity),
		database.NullDec(r.OrderedQuantity, database.ScaleQuantity),
		r.Notes)
}
