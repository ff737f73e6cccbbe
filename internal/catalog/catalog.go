package catalog

import (
	"kassaBack/internal/models"
)

// Target bot usernames. Overridable per deployment through config; these are
// the defaults baked into the catalog below.
const (
	BotUnpack = "jtbd_assistant_bot"
	BotCopy   = "content_helper_assist_bot"
	BotPhoto  = "AIPromoPhotoBot"
)

// PromoPrices are the default promotional overrides, one per catalog code.
// Config may replace the whole map; an env-only deployment with the promo
// active still charges these instead of falling back to base prices.
func PromoPrices() map[string]float64 {
	return map[string]float64{
		"unpack": 1890.00,
		"copy":   2490.00,
		"photo":  2490.00,
		"b12":    3990.00,
		"b13":    3790.00,
		"b23":    4490.00,
		"b123":   5990.00,
	}
}

// Products is the static catalog. It is upserted into the products table on
// every start: titles, prices and targets refresh on redeploy, the code stays
// the stable identity.
func Products(botUnpack, botCopy, botPhoto string) []models.Product {
	if botUnpack == "" {
		botUnpack = BotUnpack
	}
	if botCopy == "" {
		botCopy = BotCopy
	}
	if botPhoto == "" {
		botPhoto = BotPhoto
	}
	return []models.Product{
		{Code: "unpack", Title: "Бот №1 «Распаковка + Анализ ЦА (JTBD)»", Price: 2990.00, Targets: []string{botUnpack}},
		{Code: "copy", Title: "Бот №2 «Твой личный контент-помощник»", Price: 5490.00, Targets: []string{botCopy}},
		{Code: "photo", Title: "Бот №3 «Твой личный предметный фотограф»", Price: 4490.00, Targets: []string{botPhoto}},
		{Code: "b12", Title: "Пакет 1+2", Price: 7990.00, Targets: []string{botUnpack, botCopy}},
		{Code: "b13", Title: "Пакет 1+3", Price: 6990.00, Targets: []string{botUnpack, botPhoto}},
		{Code: "b23", Title: "Пакет 2+3", Price: 9490.00, Targets: []string{botCopy, botPhoto}},
		{Code: "b123", Title: "Пакет 1+2+3 (выгодно)", Price: 11990.00, Targets: []string{botUnpack, botCopy, botPhoto}},
	}
}
