package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveredRecord is one row of the delivered-quantity (sell-through) feed.
// Key: (StationCode, SellInCode, DeliveryDate).
type DeliveredRecord struct {
	StationCode  string
	SellInCode   string
	DeliveryDate time.Time
	ArticleCode  string          // resolved through the sell-in mapping
	Quantity     decimal.Decimal // thousands of liters
}

// OrderedRecord is one row of the ordered-quantity feed.
// Key: (StationCode, ArticleCode, OrderDate).
type OrderedRecord struct {
	StationCode string
	ArticleCode string
	OrderDate   time.Time
	Quantity    decimal.Decimal
}

// PromoType selects which PromoCardRecord counter a row writes.
type PromoType string

const (
	PromoBaptisms           PromoType = "BATTESIMI"
	PromoActiveTransactions PromoType = "TRXATTIVE"
	PromoEligible           PromoType = "PROMOZIONABILE"
	PromoRedeemed           PromoType = "PROMOZIONATO"
)

// PromoCounter is a single counter update for a PromoCardRecord.
// Key: (StationCode, PromoDate); Type picks the column.
type PromoCounter struct {
	StationCode string
	PromoDate   time.Time
	Type        PromoType
	Total       int64
}

// TradingAreaRecord is one competitor price observation.
type TradingAreaRecord struct {
	AreaDate     time.Time
	StationCode  string
	ArticleCode  string
	Brand        string
	Address      string
	IsMain       bool
	SelfPrice    decimal.NullDecimal
	ServedPrice  decimal.NullDecimal
	ClosingPrice decimal.NullDecimal
}

// CreditCardTxRecord is one credit-card transaction. It has no natural key:
// the whole processing day is replaced on every delivery.
type CreditCardTxRecord struct {
	LoadDate           time.Time
	TransactionType    string
	TransactionTime    time.Time
	CompetenceDate     time.Time
	StationCode        string
	StationAddress     string
	ArticleCode        string
	SellInCode         string
	ProductDescription string
	CardType           string
	Volume             decimal.Decimal
	CreditedAmount     decimal.Decimal
	CreditedPrice      decimal.Decimal
}

// PriceListRecord is one distributor price list line.
// Key: (ListDate, StationCode, ArticleCode).
type PriceListRecord struct {
	ListDate        time.Time
	StationCode     string
	ArticleCode     string
	ServedPrice     decimal.NullDecimal
	ServedDiscount  decimal.NullDecimal
	SelfPrice       decimal.NullDecimal
	SelfDiscount    decimal.NullDecimal
	OptPrice        decimal.NullDecimal
	OptDiscount     decimal.NullDecimal
	CutoffQuantity  decimal.NullDecimal
	OrderedQuantity decimal.NullDecimal
	Notes           string
}
