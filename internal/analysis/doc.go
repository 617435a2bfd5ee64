// Package analysis holds the numerical routines of the analyzer stage.
//
// Every function is pure: it takes clean records or derived series and returns new
// values without touching the filesystem. Undefined values are models.NullFloat NaNs.
//
// Routines:
//
//   - AnnualGrowth: per-year means, first and second differences and their centered
//     five-year moving averages.
//   - Decompose: classical additive decomposition with a centered moving-average trend
//     extrapolated to both edges.
//   - FitLinearTrend, FitQuadraticTrend: least squares fits against elapsed time.
//   - DecadeSummaries: per-decade statistics of the annual aggregates.
//   - NormalTest: D'Agostino-Pearson omnibus test.
//   - MonthlyClimatology, DecadeCycles: calendar-month means built on gota dataframes.
//   - Summarize: the headline numbers of a run.
package analysis
