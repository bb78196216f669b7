package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"salesstats/internal/model"
)

func main() {
	var (
		count      int
		invalid    int
		seed       int64
		outputFile string
	)
	flag.IntVar(&count, "count", 30, "number of carts to generate")
	flag.IntVar(&invalid, "invalid", 0, "how many of them lack a total")
	flag.Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	flag.StringVar(&outputFile, "output", "carts.json", "output file")
	flag.Parse()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	file, err := os.Create(outputFile)
	if err != nil {
		logrus.Fatalf("create file: %v", err)
	}
	defer file.Close()

	if err := generateCarts(file, rand.New(rand.NewSource(seed)), count, invalid); err != nil {
		logrus.Fatalf("generation failed: %v", err)
	}
	logrus.Infof("generated %d carts (%d invalid) to %s", count, invalid, outputFile)
}

var titles = []string{"Espresso", "Flat White", "Cold Brew", "Croissant", "Beans 1kg", "Grinder", "Moka Pot"}

// generateCarts writes a carts listing in the shape the HTTP source returns.
// The first invalid carts are written without a total.
func generateCarts(w io.Writer, rng *rand.Rand, count, invalid int) error {
	page := model.CartsPage{Carts: make([]model.RawOrder, 0, count), Total: count, Limit: count}
	for i := 0; i < count; i++ {
		lines := 1 + rng.Intn(5)
		cart := model.RawOrder{ID: int64(i + 1), UserID: int64(1 + rng.Intn(200)), Products: make([]model.LineItem, 0, lines)}
		var total, discounted float64
		for j := 0; j < lines; j++ {
			price := round2(2 + rng.Float64()*400)
			qty := int64(1 + rng.Intn(5))
			disc := round2(rng.Float64() * 20)
			lineTotal := round2(price * float64(qty))
			lineDisc := round2(lineTotal * (1 - disc/100))
			cart.Products = append(cart.Products, model.LineItem{
				ID:                 int64(1 + rng.Intn(190)),
				Title:              titles[rng.Intn(len(titles))],
				Price:              price,
				Quantity:           qty,
				Total:              lineTotal,
				DiscountPercentage: disc,
				DiscountedTotal:    lineDisc,
			})
			total += lineTotal
			discounted += lineDisc
			cart.TotalQuantity += qty
		}
		cart.TotalProducts = int64(lines)
		cart.DiscountedTotal = round2(discounted)
		if i >= invalid {
			cart.Total = model.Float64(round2(total))
		}
		page.Carts = append(page.Carts, cart)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&page); err != nil {
		return fmt.Errorf("encode carts: %w", err)
	}
	return nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
