package dto

import (
	"github.com/shopspring/decimal"

	"catercost/internal/domain/reports"
)

// --- Dish Costing Report ---

// DishCostingRequest holds the query of GET /reports/dish-costing/:orderId.
// Lang and TZ default to the caller's preferences.
type DishCostingRequest struct {
	Lang         *int   `form:"lang"`
	TZ           string `form:"tz"`
	IncludeTotal bool   `form:"includeTotal"`
}

// CategoryAmountResponse is one cost category of a row.
type CategoryAmountResponse struct {
	Category string          `json:"category"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
}

// QuantityResponse is a display quantity: the number already rounded to
// decimals, and its unit.
type QuantityResponse struct {
	Value    string `json:"value"`
	Decimals int    `json:"decimals"`
	UnitID   int64  `json:"unitId"`
	Unit     string `json:"unit"`
}

// MaterialRowResponse is a raw material printed under a function.
type MaterialRowResponse struct {
	RawMaterialID string           `json:"rawMaterialId"`
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	Quantity      QuantityResponse `json:"quantity"`
	Amount        decimal.Decimal  `json:"amount"`
	Excluded      bool             `json:"excluded,omitempty"`
}

// FunctionRowResponse is the costing of one function.
type FunctionRowResponse struct {
	FunctionID         string                   `json:"functionId"`
	Sequence           int                      `json:"sequence"`
	Name               string                   `json:"name"`
	Venue              string                   `json:"venue,omitempty"`
	StartsAt           string                   `json:"startsAt"`
	Period             string                   `json:"period"`
	PeriodLabel        string                   `json:"periodLabel"`
	Headcount          int                      `json:"headcount"`
	Categories         []CategoryAmountResponse `json:"categories"`
	TotalAgencyCharges decimal.Decimal          `json:"totalAgencyCharges"`
	GrandTotal         decimal.Decimal          `json:"grandTotal"`
	DishCosting        decimal.Decimal          `json:"dishCosting"`
	Materials          []MaterialRowResponse    `json:"materials"`
}

// TotalRowResponse is the order-level rollup.
type TotalRowResponse struct {
	Headcount          int                      `json:"headcount"`
	Categories         []CategoryAmountResponse `json:"categories"`
	TotalAgencyCharges decimal.Decimal          `json:"totalAgencyCharges"`
	GrandTotal         decimal.Decimal          `json:"grandTotal"`
}

// DishCostingResponse represents the dish costing report.
type DishCostingResponse struct {
	OrderID      string                `json:"orderId"`
	OrderNumber  string                `json:"orderNumber"`
	OrderDate    string                `json:"orderDate,omitempty"`
	Customer     string                `json:"customer"`
	Address      string                `json:"address,omitempty"`
	Notes        string                `json:"notes,omitempty"`
	LangType     int                   `json:"langType"`
	Functions    []FunctionRowResponse `json:"functions"`
	Total        *TotalRowResponse     `json:"total,omitempty"`
	WarningCount int                   `json:"warningCount"`
}

// FromDishCostingReport converts domain report to response DTO.
func FromDishCostingReport(r *reports.DishCostingReport) *DishCostingResponse {
	resp := &DishCostingResponse{
		OrderID:      r.OrderID.String(),
		OrderNumber:  r.OrderNumber,
		OrderDate:    formatTime(r.OrderDate),
		Customer:     r.Customer,
		Address:      r.Address,
		Notes:        r.Notes,
		LangType:     int(r.LangType),
		Functions:    make([]FunctionRowResponse, len(r.Functions)),
		WarningCount: r.WarningCount,
	}

	for i, fn := range r.Functions {
		row := FunctionRowResponse{
			FunctionID:         fn.FunctionID.String(),
			Sequence:           fn.Sequence,
			Name:               fn.Name,
			Venue:              fn.Venue,
			StartsAt:           formatTime(fn.StartsAt),
			Period:             fn.Period.Period.String(),
			PeriodLabel:        fn.Period.Label,
			Headcount:          fn.Headcount,
			Categories:         fromCategoryAmounts(fn.Categories),
			TotalAgencyCharges: fn.TotalAgencyCharges,
			GrandTotal:         fn.GrandTotal,
			DishCosting:        fn.DishCosting,
			Materials:          make([]MaterialRowResponse, len(fn.Materials)),
		}
		for j, m := range fn.Materials {
			row.Materials[j] = MaterialRowResponse{
				RawMaterialID: m.RawMaterialID.String(),
				Name:          m.Name,
				Category:      m.Category.String(),
				Quantity: QuantityResponse{
					Value:    m.Quantity.StringFixed(int32(m.Decimals)),
					Decimals: m.Decimals,
					UnitID:   int64(m.UnitID),
					Unit:     m.Unit,
				},
				Amount:   m.Amount,
				Excluded: m.Excluded,
			}
		}
		resp.Functions[i] = row
	}

	if r.Total != nil {
		resp.Total = &TotalRowResponse{
			Headcount:          r.Total.Headcount,
			Categories:         fromCategoryAmounts(r.Total.Categories),
			TotalAgencyCharges: r.Total.TotalAgencyCharges,
			GrandTotal:         r.Total.GrandTotal,
		}
	}
	return resp
}

func fromCategoryAmounts(in []reports.CategoryAmount) []CategoryAmountResponse {
	out := make([]CategoryAmountResponse, len(in))
	for i, c := range in {
		out[i] = CategoryAmountResponse{
			Category: c.Category.String(),
			Label:    c.Label,
			Amount:   c.Amount,
		}
	}
	return out
}

// --- Raw-Material Consumption Report ---

// ConsumptionRequest represents request for the raw-material consumption report.
type ConsumptionRequest struct {
	FromDate string `form:"fromDate" binding:"required"`
	ToDate   string `form:"toDate" binding:"required"`
	Lang     *int   `form:"lang"`
	Adjust   bool   `form:"adjust"`
}

// ConsumptionItemResponse is the total quantity of one raw material.
type ConsumptionItemResponse struct {
	RawMaterialID string           `json:"rawMaterialId"`
	Name          string           `json:"name"`
	Quantity      QuantityResponse `json:"quantity"`
	Excluded      bool             `json:"excluded,omitempty"`
}

// ConsumptionResponse represents the raw-material consumption report.
type ConsumptionResponse struct {
	FromDate     string                    `json:"fromDate"`
	ToDate       string                    `json:"toDate"`
	Items        []ConsumptionItemResponse `json:"items"`
	TotalItems   int                       `json:"totalItems"`
	WarningCount int                       `json:"warningCount"`
}

// FromConsumptionReport converts domain report to response DTO.
func FromConsumptionReport(r *reports.ConsumptionReport) *ConsumptionResponse {
	resp := &ConsumptionResponse{
		FromDate:     formatTime(r.FromDate),
		ToDate:       formatTime(r.ToDate),
		Items:        make([]ConsumptionItemResponse, len(r.Items)),
		TotalItems:   len(r.Items),
		WarningCount: r.WarningCount,
	}
	for i, item := range r.Items {
		resp.Items[i] = ConsumptionItemResponse{
			RawMaterialID: item.RawMaterialID.String(),
			Name:          item.Name,
			Quantity: QuantityResponse{
				Value:    item.Quantity.StringFixed(int32(item.Decimals)),
				Decimals: item.Decimals,
				UnitID:   int64(item.UnitID),
				Unit:     item.Unit,
			},
			Excluded: item.Excluded,
		}
	}
	return resp
}
