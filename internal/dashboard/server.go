package dashboard

import (
	"bufio"
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/qepting91/social-collector/internal/domain"
)

func StartServer(dataFile string, port string) error {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		records := loadData(dataFile)

		// 1. Platform Dominance
		pie := charts.NewPie()
		pie.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Platform Dominance"}),
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		)

		platformCounts := make(map[string]int)
		for _, rec := range records {
			platformCounts[string(rec.SourcePlatform)]++
		}

		var pieItems []opts.PieData
		for k, v := range platformCounts {
			pieItems = append(pieItems, opts.PieData{Name: k, Value: v})
		}
		pie.AddSeries("Records", pieItems)

		// 2. Origin Volume
		bar := charts.NewBar()
		bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Records per Origin"}))

		originCounts := make(map[string]int)
		for _, rec := range records {
			originCounts[rec.OriginQuery]++
		}

		var barX []string
		var barY []opts.BarData
		for k, v := range originCounts {
			barX = append(barX, k)
			barY = append(barY, opts.BarData{Value: v})
		}
		bar.SetXAxis(barX).AddSeries("Records", barY)

		pie.Render(w)
		bar.Render(w)
	})

	return http.ListenAndServe(":"+port, nil)
}

func loadData(path string) []domain.Record {
	f, err := os.Open(path)
	if err != nil {
		// Nothing collected yet; render empty charts.
		return nil
	}
	defer f.Close()
	var records []domain.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err == nil {
			records = append(records, rec)
		}
	}
	return records
}
