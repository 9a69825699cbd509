/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	htmltemplate "html/template"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/humaidq/tally/finance"
)

const chartHeight = "320px"

func chartInit(chartID string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		Width:   "100%",
		Height:  chartHeight,
		ChartID: chartID,
	})
}

type chartRenderer interface {
	Render(w io.Writer) error
}

func renderChart(chart chartRenderer) (htmltemplate.HTML, error) {
	var buf bytes.Buffer
	if err := chart.Render(&buf); err != nil {
		return "", err
	}

	// #nosec G203 -- output is generated by go-echarts from numeric series and escaped labels.
	return htmltemplate.HTML(buf.String()), nil
}

// renderCategoryPie draws the month's expenses split by category.
func renderCategoryPie(chartID string, totals []finance.CategoryTotal) (htmltemplate.HTML, error) {
	if len(totals) == 0 {
		return "", nil
	}

	items := make([]opts.PieData, 0, len(totals))
	for _, total := range totals {
		items = append(items, opts.PieData{
			Name:  total.Category,
			Value: total.Amount.InexactFloat64(),
		})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		chartInit(chartID),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "item",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:   opts.Bool(true),
			Orient: "vertical",
			Left:   "left",
		}),
	)

	pie.AddSeries("Expenses", items).
		SetSeriesOptions(
			charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"40%", "70%"},
			}),
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {d}%",
			}),
		)

	return renderChart(pie)
}

// renderIncomeExpenseBar compares income and expenses month by month.
func renderIncomeExpenseBar(chartID, currency string, months []finance.MonthTotals) (htmltemplate.HTML, error) {
	if len(months) == 0 {
		return "", nil
	}

	xAxis := make([]string, 0, len(months))
	income := make([]opts.BarData, 0, len(months))
	expenses := make([]opts.BarData, 0, len(months))

	for _, month := range months {
		xAxis = append(xAxis, month.PeriodStart.Format("Jan 06"))
		income = append(income, opts.BarData{Value: month.Income.InexactFloat64()})
		expenses = append(expenses, opts.BarData{Value: month.Expenses.InexactFloat64()})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		chartInit(chartID),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: currency,
		}),
	)

	bar.SetXAxis(xAxis).
		AddSeries("Income", income).
		AddSeries("Expenses", expenses)

	return renderChart(bar)
}

// renderCumulativeSpendingLine plots running spending across the month.
func renderCumulativeSpendingLine(chartID, currency string, points []finance.DailyPoint) (htmltemplate.HTML, error) {
	if len(points) == 0 {
		return "", nil
	}

	xAxis := make([]string, 0, len(points))
	yData := make([]opts.LineData, 0, len(points))

	for _, point := range points {
		xAxis = append(xAxis, point.Day.Format("2"))
		yData = append(yData, opts.LineData{Value: point.Cumulative.InexactFloat64()})
	}

	return renderLine(chartID, "Spending", currency, xAxis, yData)
}

// renderDebtBalanceLine plots the remaining balance of a debt over time.
func renderDebtBalanceLine(chartID, currency string, series []finance.Balance) (htmltemplate.HTML, error) {
	if len(series) == 0 {
		return "", nil
	}

	xAxis := make([]string, 0, len(series))
	yData := make([]opts.LineData, 0, len(series))

	for _, point := range series {
		xAxis = append(xAxis, point.AsOf.Format("Jan 06"))
		yData = append(yData, opts.LineData{Value: point.RemainingAmount.InexactFloat64()})
	}

	return renderLine(chartID, "Remaining", currency, xAxis, yData)
}

func renderLine(chartID, title, currency string, xAxis []string, yData []opts.LineData) (htmltemplate.HTML, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(
		chartInit(chartID),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{
				HideOverlap: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  currency,
			Scale: opts.Bool(true),
		}),
	)

	line.SetXAxis(xAxis).
		AddSeries(title, yData).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth:     opts.Bool(true),
				ShowSymbol: opts.Bool(false),
			}),
		)

	return renderChart(line)
}

func chartID(prefix, id string) string {
	return prefix + "_" + strings.ReplaceAll(id, "-", "")
}
