package services

import (
	"math"
	"testing"
	"time"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
)

func filterTestCoins() []models.CoinData {
	return []models.CoinData{
		{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", CurrentPrice: 50000, PriceChangePercentage24h: 2, MarketCap: 1000, MarketCapRank: 1},
		{ID: "ethereum", Name: "Ethereum", Symbol: "ETH", CurrentPrice: 3000, PriceChangePercentage24h: -1, MarketCap: 500, MarketCapRank: 2},
		{ID: "tether", Name: "Tether", Symbol: "USDT", CurrentPrice: 1, PriceChangePercentage24h: 0, MarketCap: 100, MarketCapRank: 3},
		{ID: "obscura", Name: "Obscura", Symbol: "OBS", CurrentPrice: 0.5, PriceChangePercentage24h: -8, MarketCap: 1, MarketCapRank: 60},
	}
}

func coinIDsOf(coins []models.CoinData) []string {
	ids := make([]string, len(coins))
	for i, coin := range coins {
		ids[i] = coin.ID
	}
	return ids
}

func assertOrder(t *testing.T, got []models.CoinData, expected []string) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected %d coins, got %v", len(expected), coinIDsOf(got))
	}
	for i := range expected {
		if got[i].ID != expected[i] {
			t.Fatalf("expected order %v, got %v", expected, coinIDsOf(got))
		}
	}
}

func TestFilteredSortedCoins_EmptyQueryKeepsEverything(t *testing.T) {
	coins := filterTestCoins()
	result := FilteredSortedCoins(coins, "", models.DefaultFilters(), models.DefaultSortConfig())
	if len(result) != len(coins) {
		t.Errorf("an empty query with default filters must keep all coins, got %d of %d", len(result), len(coins))
	}

	// Whitespace-only queries behave like the empty query
	result = FilteredSortedCoins(coins, "   ", models.DefaultFilters(), models.DefaultSortConfig())
	if len(result) != len(coins) {
		t.Errorf("a whitespace query must keep all coins, got %d of %d", len(result), len(coins))
	}
}

func TestFilteredSortedCoins_SubstringMatchesNameOrSymbol(t *testing.T) {
	coins := filterTestCoins()

	result := FilteredSortedCoins(coins, "ETH", models.DefaultFilters(), models.DefaultSortConfig())
	assertOrder(t, result, []string{"ethereum", "tether"})

	result = FilteredSortedCoins(coins, "usdt", models.DefaultFilters(), models.DefaultSortConfig())
	assertOrder(t, result, []string{"tether"})

	result = FilteredSortedCoins(coins, "nomatch", models.DefaultFilters(), models.DefaultSortConfig())
	if len(result) != 0 {
		t.Errorf("expected no matches, got %v", coinIDsOf(result))
	}
}

func TestFilteredSortedCoins_MarketCapFilter(t *testing.T) {
	coins := filterTestCoins()
	filters := models.FilterState{MarketCapFilter: models.MarketCapFilterTop50, PriceChangeFilter: models.PriceChangeFilterAll}

	result := FilteredSortedCoins(coins, "", filters, models.DefaultSortConfig())
	assertOrder(t, result, []string{"bitcoin", "ethereum", "tether"})
}

func TestFilteredSortedCoins_PriceChangeSignFilter(t *testing.T) {
	coins := filterTestCoins()

	positive := models.FilterState{MarketCapFilter: models.MarketCapFilterAll, PriceChangeFilter: models.PriceChangeFilterPositive}
	result := FilteredSortedCoins(coins, "", positive, models.DefaultSortConfig())
	// Zero counts as positive
	assertOrder(t, result, []string{"bitcoin", "tether"})

	negative := models.FilterState{MarketCapFilter: models.MarketCapFilterAll, PriceChangeFilter: models.PriceChangeFilterNegative}
	result = FilteredSortedCoins(coins, "", negative, models.DefaultSortConfig())
	assertOrder(t, result, []string{"ethereum", "obscura"})
}

func TestFilteredSortedCoins_MarketCapAscendingShowsLargestFirst(t *testing.T) {
	coins := filterTestCoins()
	sortConfig := models.SortConfig{Key: models.SortKeyMarketCap, Direction: models.SortAsc}

	result := FilteredSortedCoins(coins, "", models.DefaultFilters(), sortConfig)
	assertOrder(t, result, []string{"bitcoin", "ethereum", "tether", "obscura"})

	sortConfig.Direction = models.SortDesc
	result = FilteredSortedCoins(coins, "", models.DefaultFilters(), sortConfig)
	assertOrder(t, result, []string{"obscura", "tether", "ethereum", "bitcoin"})
}

func TestFilteredSortedCoins_RankSortsLiterally(t *testing.T) {
	coins := filterTestCoins()
	sortConfig := models.SortConfig{Key: models.SortKeyMarketCapRank, Direction: models.SortAsc}

	result := FilteredSortedCoins(coins, "", models.DefaultFilters(), sortConfig)
	// Rank ascending yields 1, 2, 3, ... with no inversion
	assertOrder(t, result, []string{"bitcoin", "ethereum", "tether", "obscura"})
}

func TestFilteredSortedCoins_NameSortIsCaseInsensitive(t *testing.T) {
	coins := []models.CoinData{
		{ID: "b", Name: "beta"},
		{ID: "a", Name: "Alpha"},
		{ID: "c", Name: "charlie"},
	}
	sortConfig := models.SortConfig{Key: models.SortKeyName, Direction: models.SortAsc}

	result := FilteredSortedCoins(coins, "", models.DefaultFilters(), sortConfig)
	assertOrder(t, result, []string{"a", "b", "c"})
}

func TestPortfolioValuation_ReconstructsPrice24hAgo(t *testing.T) {
	holdings := []models.Holding{{CoinID: "coin", Amount: 2}}
	coins := map[string]models.CoinData{
		"coin": {ID: "coin", Name: "Coin", CurrentPrice: 110, PriceChangePercentage24h: 10},
	}

	valuation := PortfolioValuation(holdings, coins)
	if len(valuation.Holdings) != 1 {
		t.Fatalf("expected 1 valued holding, got %d", len(valuation.Holdings))
	}

	// price24hAgo = 110 / 1.10 = 100, so the position moved from 200 to 220
	holding := valuation.Holdings[0]
	if math.Abs(holding.CurrentValue-220) > 1e-9 {
		t.Errorf("expected current value 220, got %v", holding.CurrentValue)
	}
	if math.Abs(holding.Change24h-20) > 1e-9 {
		t.Errorf("expected 24h change 20, got %v", holding.Change24h)
	}
	if math.Abs(holding.ChangePercentage24h-10) > 1e-9 {
		t.Errorf("expected 24h change of 10%%, got %v", holding.ChangePercentage24h)
	}
	if math.Abs(valuation.TotalChange24h-20) > 1e-9 {
		t.Errorf("expected total 24h change 20, got %v", valuation.TotalChange24h)
	}
}

func TestPortfolioValuation_SkipsUnloadedCoins(t *testing.T) {
	holdings := []models.Holding{
		{CoinID: "bitcoin", Amount: 1},
		{CoinID: "unloaded", Amount: 100},
	}
	coins := map[string]models.CoinData{
		"bitcoin": {ID: "bitcoin", CurrentPrice: 50000, PriceChangePercentage24h: 0},
	}

	valuation := PortfolioValuation(holdings, coins)
	if len(valuation.Holdings) != 1 {
		t.Fatalf("holdings for unloaded coins must be excluded, got %d", len(valuation.Holdings))
	}
	if valuation.TotalValue != 50000 {
		t.Errorf("totals must only cover loaded coins, got %v", valuation.TotalValue)
	}
	if !valuation.HasHoldings {
		t.Error("HasHoldings reflects the raw holdings, not the valued ones")
	}
}

func TestPortfolioValuation_BestAndWorstPerformers(t *testing.T) {
	holdings := []models.Holding{
		{CoinID: "up", Amount: 1},
		{CoinID: "down", Amount: 1},
		{CoinID: "flat", Amount: 1},
	}
	coins := map[string]models.CoinData{
		"up":   {ID: "up", CurrentPrice: 110, PriceChangePercentage24h: 10},
		"down": {ID: "down", CurrentPrice: 90, PriceChangePercentage24h: -10},
		"flat": {ID: "flat", CurrentPrice: 100, PriceChangePercentage24h: 0},
	}

	valuation := PortfolioValuation(holdings, coins)
	if valuation.BestPerformer == nil || valuation.BestPerformer.CoinID != "up" {
		t.Error("expected the rising coin as best performer")
	}
	if valuation.WorstPerformer == nil || valuation.WorstPerformer.CoinID != "down" {
		t.Error("expected the falling coin as worst performer")
	}
}

func TestPortfolioValuation_Empty(t *testing.T) {
	valuation := PortfolioValuation(nil, nil)
	if valuation.HasHoldings {
		t.Error("an empty portfolio must report HasHoldings false")
	}
	if valuation.TotalValue != 0 || valuation.TotalChangePercentage24h != 0 {
		t.Error("an empty portfolio must have zero totals")
	}
	if valuation.BestPerformer != nil || valuation.WorstPerformer != nil {
		t.Error("an empty portfolio has no performers")
	}
}

func TestIsStale(t *testing.T) {
	maxAge := 30 * time.Second

	if IsStale(time.Now(), maxAge) {
		t.Error("fresh data must not be stale")
	}
	if !IsStale(time.Now().Add(-time.Minute), maxAge) {
		t.Error("data older than the max age must be stale")
	}
	if !IsStale(time.Time{}, maxAge) {
		t.Error("never-updated data must always be stale")
	}
}
