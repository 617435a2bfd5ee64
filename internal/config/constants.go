package config

// DefaultConfigFile is the YAML overlay read when KEELING_CONFIG_FILE is unset
const DefaultConfigFile = "keeling.yaml"

// Pipeline file names, resolved against PipelineConfig.DataDir
const (
	MonthlyFile    = "co2_monthly.csv"
	HistoricalFile = "co2_historical.csv"
	CleanFile      = "co2_clean.csv"

	DecompositionFile = "analysis_decomposition.csv"
	GrowthFile        = "analysis_growth_rate.csv"
	DecadesFile       = "analysis_by_decade.csv"
	ReportWorkbook    = "analysis_report.xlsx"

	FullChart          = "keeling_curve_full.png"
	SeasonalChart      = "keeling_curve_seasonal.png"
	DecadesChart       = "keeling_curve_decades.png"
	DecompositionChart = "keeling_curve_decomposition.png"
	GrowthChart        = "keeling_curve_growth.png"
	HistoricalChart    = "keeling_curve_historical.png"

	DashboardFile = "keeling_dashboard.html"
)
