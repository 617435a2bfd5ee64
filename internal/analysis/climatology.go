package analysis

import (
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"keeling-pipeline/internal/models"
)

// MonthLabels are the abbreviated calendar month names, January first
var MonthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthStat is the mean and sample standard deviation of co2 for one calendar month
type MonthStat struct {
	Month int
	Mean  models.NullFloat
	Std   models.NullFloat
	Count int
}

// DecadeCycle is the mean seasonal cycle of one decade
type DecadeCycle struct {
	Decade  int
	Count   int
	Monthly [12]models.NullFloat
}

// recordFrame builds a dataframe with year, month, decade and co2 columns
func recordFrame(records []*models.CO2Record) dataframe.DataFrame {
	years := make([]int, len(records))
	months := make([]int, len(records))
	decades := make([]int, len(records))
	co2 := make([]float64, len(records))
	for i, r := range records {
		years[i] = r.Year
		months[i] = r.Month
		decades[i] = models.DecadeOf(r.Year)
		co2[i] = r.CO2
	}

	return dataframe.New(
		series.New(years, series.Int, "year"),
		series.New(months, series.Int, "month"),
		series.New(decades, series.Int, "decade"),
		series.New(co2, series.Float, "co2"),
	)
}

// MonthlyClimatology returns twelve entries, one per calendar month. Months without
// records are undefined.
func MonthlyClimatology(records []*models.CO2Record) []MonthStat {
	out := make([]MonthStat, 12)
	if len(records) == 0 {
		for m := range out {
			out[m] = MonthStat{Month: m + 1, Mean: models.Undefined(), Std: models.Undefined()}
		}
		return out
	}

	df := recordFrame(records)
	for m := 1; m <= 12; m++ {
		out[m-1] = monthStat(df, m)
	}
	return out
}

func monthStat(df dataframe.DataFrame, month int) MonthStat {
	stat := MonthStat{Month: month, Mean: models.Undefined(), Std: models.Undefined()}

	subset := df.Filter(dataframe.F{Colname: "month", Comparator: series.Eq, Comparando: month})
	if subset.Err != nil || subset.Nrow() == 0 {
		return stat
	}

	col := subset.Col("co2")
	stat.Count = subset.Nrow()
	stat.Mean = models.NullFloat(col.Mean())
	if stat.Count > 1 {
		stat.Std = models.NullFloat(col.StdDev())
	}
	return stat
}

// DecadeCycles returns the mean seasonal cycle of every decade present, oldest first
func DecadeCycles(records []*models.CO2Record) []DecadeCycle {
	if len(records) == 0 {
		return nil
	}

	df := recordFrame(records)

	seen := make(map[int]bool)
	var decades []int
	for _, r := range records {
		d := models.DecadeOf(r.Year)
		if !seen[d] {
			seen[d] = true
			decades = append(decades, d)
		}
	}
	sort.Ints(decades)

	cycles := make([]DecadeCycle, 0, len(decades))
	for _, d := range decades {
		subset := df.Filter(dataframe.F{Colname: "decade", Comparator: series.Eq, Comparando: d})
		if subset.Err != nil {
			continue
		}
		cycle := DecadeCycle{Decade: d, Count: subset.Nrow()}
		for m := 1; m <= 12; m++ {
			cycle.Monthly[m-1] = monthStat(subset, m).Mean
		}
		cycles = append(cycles, cycle)
	}
	return cycles
}
