package yaegi

import (
	"reflect"

	"github.com/traefik/yaegi/interp"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jonwraymond/rigorexec/figures"
)

// PlotHelperPackage is the import path of the figure helper. plt.New
// creates a registered plot and plt.Show registers an existing one.
const PlotHelperPackage = "plt"

// numericSymbols exposes the parts of gonum and gonum/plot that analysis
// scripts use. The keys follow yaegi's "<import path>/<package name>" form.
func numericSymbols() interp.Exports {
	return interp.Exports{
		"gonum.org/v1/gonum/stat/stat": {
			"CumulantKind":     reflect.ValueOf((*stat.CumulantKind)(nil)),
			"Empirical":        reflect.ValueOf(stat.Empirical),
			"LinInterp":        reflect.ValueOf(stat.LinInterp),
			"Correlation":      reflect.ValueOf(stat.Correlation),
			"Covariance":       reflect.ValueOf(stat.Covariance),
			"ExKurtosis":       reflect.ValueOf(stat.ExKurtosis),
			"GeometricMean":    reflect.ValueOf(stat.GeometricMean),
			"HarmonicMean":     reflect.ValueOf(stat.HarmonicMean),
			"LinearRegression": reflect.ValueOf(stat.LinearRegression),
			"Mean":             reflect.ValueOf(stat.Mean),
			"MeanStdDev":       reflect.ValueOf(stat.MeanStdDev),
			"MeanVariance":     reflect.ValueOf(stat.MeanVariance),
			"Mode":             reflect.ValueOf(stat.Mode),
			"Quantile":         reflect.ValueOf(stat.Quantile),
			"RSquared":         reflect.ValueOf(stat.RSquared),
			"Skew":             reflect.ValueOf(stat.Skew),
			"SortWeighted":     reflect.ValueOf(stat.SortWeighted),
			"StdDev":           reflect.ValueOf(stat.StdDev),
			"StdErr":           reflect.ValueOf(stat.StdErr),
			"StdScore":         reflect.ValueOf(stat.StdScore),
			"Variance":         reflect.ValueOf(stat.Variance),
		},
		"gonum.org/v1/gonum/floats/floats": {
			"Add":      reflect.ValueOf(floats.Add),
			"AddConst": reflect.ValueOf(floats.AddConst),
			"CumSum":   reflect.ValueOf(floats.CumSum),
			"Distance": reflect.ValueOf(floats.Distance),
			"Dot":      reflect.ValueOf(floats.Dot),
			"Equal":    reflect.ValueOf(floats.Equal),
			"HasNaN":   reflect.ValueOf(floats.HasNaN),
			"Max":      reflect.ValueOf(floats.Max),
			"MaxIdx":   reflect.ValueOf(floats.MaxIdx),
			"Min":      reflect.ValueOf(floats.Min),
			"MinIdx":   reflect.ValueOf(floats.MinIdx),
			"Norm":     reflect.ValueOf(floats.Norm),
			"Prod":     reflect.ValueOf(floats.Prod),
			"Scale":    reflect.ValueOf(floats.Scale),
			"Span":     reflect.ValueOf(floats.Span),
			"Sub":      reflect.ValueOf(floats.Sub),
			"Sum":      reflect.ValueOf(floats.Sum),
		},
		"gonum.org/v1/plot/plot": {
			"New":  reflect.ValueOf(plot.New),
			"Plot": reflect.ValueOf((*plot.Plot)(nil)),
		},
		"gonum.org/v1/plot/plotter/plotter": {
			"NewBarChart": reflect.ValueOf(plotter.NewBarChart),
			"NewBoxPlot":  reflect.ValueOf(plotter.NewBoxPlot),
			"NewFunction": reflect.ValueOf(plotter.NewFunction),
			"NewGrid":     reflect.ValueOf(plotter.NewGrid),
			"NewHist":     reflect.ValueOf(plotter.NewHist),
			"NewLine":     reflect.ValueOf(plotter.NewLine),
			"NewScatter":  reflect.ValueOf(plotter.NewScatter),
			"Values":      reflect.ValueOf((*plotter.Values)(nil)),
			"XY":          reflect.ValueOf((*plotter.XY)(nil)),
			"XYs":         reflect.ValueOf((*plotter.XYs)(nil)),
		},
		"gonum.org/v1/plot/vg/vg": {
			"Centimeter": reflect.ValueOf(vg.Centimeter),
			"Inch":       reflect.ValueOf(vg.Inch),
			"Length":     reflect.ValueOf((*vg.Length)(nil)),
			"Millimeter": reflect.ValueOf(vg.Millimeter),
			"Points":     reflect.ValueOf(vg.Points),
		},
	}
}

// plotHelperSymbols binds the plt package to one run's registry.
func plotHelperSymbols(reg *figures.Registry) interp.Exports {
	return interp.Exports{
		PlotHelperPackage + "/" + PlotHelperPackage: {
			"New":  reflect.ValueOf(reg.New),
			"Show": reflect.ValueOf(reg.Add),
		},
	}
}
