package models

import (
	"errors"
	"fmt"
	"strings"
)

type Product string

const (
	ProductPOR  Product = "POR"
	ProductR360 Product = "R360"
)

type Region string

const (
	RegionAMER Region = "AMER"
	RegionEMEA Region = "EMEA"
	RegionAPAC Region = "APAC"
)

type Category string

const (
	CategoryNewLogo   Category = "NEW LOGO"
	CategoryStrategic Category = "STRATEGIC"
	CategoryExpansion Category = "EXPANSION"
	CategoryMigration Category = "MIGRATION"
	CategoryRenewal   Category = "RENEWAL"
	CategoryOther     Category = "OTHER"
)

type Source string

const (
	SourceNone         Source = ""
	SourceInbound      Source = "INBOUND"
	SourceOutbound     Source = "OUTBOUND"
	SourceAESourced    Source = "AE SOURCED"
	SourceAMSourced    Source = "AM SOURCED"
	SourceTradeshow    Source = "TRADESHOW"
	SourcePartnerships Source = "PARTNERSHIPS"
)

var (
	ErrUnknownProduct  = errors.New("unknown product")
	ErrUnknownRegion   = errors.New("unknown region")
	ErrUnknownCategory = errors.New("unknown category")
)

// Orden canónico de cada dimensión; define el orden de salida del reporte.
var (
	Products   = []Product{ProductPOR, ProductR360}
	Regions    = []Region{RegionAMER, RegionEMEA, RegionAPAC}
	Categories = []Category{CategoryNewLogo, CategoryStrategic, CategoryExpansion, CategoryMigration, CategoryRenewal, CategoryOther}
	Sources    = []Source{SourceInbound, SourceOutbound, SourceAESourced, SourceAMSourced, SourceTradeshow, SourcePartnerships}
)

func ParseProduct(s string) (Product, error) {
	for _, p := range Products {
		if string(p) == canon(s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProduct, s)
}

func ParseRegion(s string) (Region, error) {
	for _, r := range Regions {
		if string(r) == canon(s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == canon(s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

func canon(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// DimensionKey is the composite key every source is normalized onto.
type DimensionKey struct {
	Product  Product  `json:"product"`
	Region   Region   `json:"region"`
	Category Category `json:"category"`
	Source   Source   `json:"source,omitempty"`
}

// Segment drops the source dimension.
func (k DimensionKey) Segment() DimensionKey {
	k.Source = SourceNone
	return k
}

func (k DimensionKey) String() string {
	s := string(k.Product) + "|" + string(k.Region) + "|" + string(k.Category)
	if k.Source != SourceNone {
		s += "|" + string(k.Source)
	}
	return s
}

// Less orders keys by the canonical dimension order.
func (k DimensionKey) Less(o DimensionKey) bool {
	if a, b := indexOf(Products, k.Product), indexOf(Products, o.Product); a != b {
		return a < b
	}
	if a, b := indexOf(Regions, k.Region), indexOf(Regions, o.Region); a != b {
		return a < b
	}
	if a, b := indexOf(Categories, k.Category), indexOf(Categories, o.Category); a != b {
		return a < b
	}
	return sourceRank(k.Source) < sourceRank(o.Source)
}

// UpliftKey identifies a renewal uplift adjustment.
type UpliftKey struct {
	Product Product `json:"product"`
	Region  Region  `json:"region"`
}

func sourceRank(s Source) int {
	if s == SourceNone {
		return -1
	}
	return indexOf(Sources, s)
}

func indexOf[T comparable](xs []T, v T) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return len(xs)
}
