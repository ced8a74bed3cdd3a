package services

import (
	"context"
	"fmt"
	"sort"

	"ipdash/internal/analytics"
	"ipdash/pkg/contracts/domain"
)

// broadcastPolicies returns the episode-grouped metric policies.
func broadcastPolicies() []domain.MetricPolicy {
	out := make([]domain.MetricPolicy, 0, len(domain.DefaultPolicies))
	for _, p := range domain.DefaultPolicies {
		if p.Broadcast {
			out = append(out, p)
		}
	}
	return out
}

// digitalPolicies returns the cumulative/weekly metric policies.
func digitalPolicies() []domain.MetricPolicy {
	out := make([]domain.MetricPolicy, 0, len(domain.DefaultPolicies))
	for _, p := range domain.DefaultPolicies {
		if !p.Broadcast {
			out = append(out, p)
		}
	}
	return out
}

func (s *DashboardService) buildOverview(_ context.Context, req ViewRequest, rows []domain.Event) (domain.ViewPayload, error) {
	var payload domain.ViewPayload

	for _, policy := range domain.DefaultPolicies {
		agg := analytics.Aggregate(rows, policy, nil)
		payload.KPIs = append(payload.KPIs, kpi("mean "+string(policy.Metric), agg, 2))
	}

	ips := analytics.IPs(rows)
	grid := domain.Grid{Name: "ip-summary", RowKeys: ips}
	perMetric := make([][]analytics.MetricGrade, 0, len(domain.DefaultPolicies))
	for _, policy := range domain.DefaultPolicies {
		grid.Columns = append(grid.Columns, string(policy.Metric))
		perMetric = append(perMetric, analytics.GradeMetric(rows, policy.Metric, nil, 0))
	}
	grid.Columns = append(grid.Columns, "overall")
	overall := analytics.GradeOverall(ips, perMetric...)

	for i := range ips {
		row := make([]domain.GridCell, 0, len(grid.Columns))
		for _, grades := range perMetric {
			row = append(row, valueCell(grades[i].Value, 2))
		}
		row = append(row, gradeCell(string(overall[i].Grade), overall[i].MeanPercentile))
		grid.Rows = append(grid.Rows, row)
	}
	payload.Grids = append(payload.Grids, grid)

	payload.Series = append(payload.Series, s.topSeries(rows, domain.MetricTargetRating))
	return payload, nil
}

// topSeries ranks IPs by their aggregate on one metric, best first,
// truncated to the configured top N.
func (s *DashboardService) topSeries(rows []domain.Event, metric domain.Metric) domain.Series {
	perIP := analytics.PerIPAggregate(rows, domain.PolicyFor(metric), nil)
	type entry struct {
		ip    string
		value float64
	}
	entries := make([]entry, 0, len(perIP))
	for ip, v := range perIP {
		entries = append(entries, entry{ip: ip, value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].value != entries[j].value {
			return entries[i].value > entries[j].value
		}
		return entries[i].ip < entries[j].ip
	})
	if len(entries) > s.cfg.TopN {
		entries = entries[:s.cfg.TopN]
	}
	series := domain.Series{Name: "top " + string(metric)}
	for _, e := range entries {
		series.Points = append(series.Points, domain.SeriesPoint{X: e.ip, Y: e.value, Valid: true})
	}
	return series
}

func (s *DashboardService) buildIPDetail(_ context.Context, req ViewRequest, rows []domain.Event) (domain.ViewPayload, error) {
	if err := requireIP(rows, req.IP); err != nil {
		return domain.ViewPayload{}, err
	}
	var payload domain.ViewPayload

	for _, policy := range domain.DefaultPolicies {
		perIP := analytics.PerIPAggregate(rows, policy, nil)
		own := analytics.None
		if v, ok := perIP[req.IP]; ok {
			own = analytics.Some(v)
		}
		crossMean := analytics.Aggregate(rows, policy, nil)
		payload.KPIs = append(payload.KPIs,
			kpi(string(policy.Metric), own, 2),
			indexKPI(string(policy.Metric)+" vs average", analytics.IndexScalar(own, crossMean)))
	}

	for _, policy := range broadcastPolicies() {
		series := analytics.EpisodeSeries(rows, req.IP, policy.Metric, nil)
		payload.Series = append(payload.Series,
			episodeSeriesChart(string(policy.Metric)+" by episode", series))
	}
	for _, policy := range digitalPolicies() {
		points := analytics.WeekSeries(rows, req.IP, policy.Metric)
		chart := domain.Series{Name: string(policy.Metric) + " by week"}
		for _, p := range points {
			chart.Points = append(chart.Points, domain.SeriesPoint{X: p.Key, Y: p.Value, Valid: true})
		}
		payload.Series = append(payload.Series, chart)
	}
	return payload, nil
}

func (s *DashboardService) buildHeatmap(_ context.Context, req ViewRequest, rows []domain.Event) (domain.ViewPayload, error) {
	metric := metricOrDefault(req.Metric)
	demos := analytics.Demographics(rows)
	ips := analytics.IPs(rows)

	values := domain.Grid{Name: "demographic-ratings", Columns: ips, RowKeys: demos}
	indexed := domain.Grid{Name: "demographic-index", Columns: ips, RowKeys: demos}
	var indexValues []float64

	for _, demo := range demos {
		demoRows := filterDemographic(rows, demo)
		perIP := analytics.PerIPEpisodeMeans(demoRows, metric, nil)
		demoMean := analytics.MeanOfEpisodeMeans(demoRows, metric, nil)

		valueRow := make([]domain.GridCell, 0, len(ips))
		indexRow := make([]domain.GridCell, 0, len(ips))
		for _, ip := range ips {
			own := analytics.None
			if v, ok := perIP[ip]; ok {
				own = analytics.Some(v)
			}
			valueRow = append(valueRow, valueCell(own, 2))

			idx := analytics.IndexScalar(own, demoMean)
			cell := indexCell(idx)
			if idx.Valid && !cell.Sentinel {
				indexValues = append(indexValues, idx.Value)
			}
			indexRow = append(indexRow, cell)
		}
		values.Rows = append(values.Rows, valueRow)
		indexed.Rows = append(indexed.Rows, indexRow)
	}

	payload := domain.ViewPayload{Grids: []domain.Grid{values, indexed}}
	// Color-scale bounds with sentinels excluded.
	if min, max, ok := analytics.IndexRange(indexValues); ok {
		payload.KPIs = append(payload.KPIs,
			kpi("index min", analytics.Some(min), 1),
			kpi("index max", analytics.Some(max), 1))
	} else {
		payload.KPIs = append(payload.KPIs,
			kpi("index min", analytics.None, 1),
			kpi("index max", analytics.None, 1))
	}
	return payload, nil
}

func (s *DashboardService) buildComparison(_ context.Context, req ViewRequest, rows []domain.Event) (domain.ViewPayload, error) {
	if err := requireIP(rows, req.IP); err != nil {
		return domain.ViewPayload{}, err
	}
	var payload domain.ViewPayload

	compName := req.CompareIP
	var compRows []domain.Event
	if req.CompareIP != "" {
		if err := requireIP(rows, req.CompareIP); err != nil {
			return domain.ViewPayload{}, err
		}
		compRows = analytics.FilterIP(rows, req.CompareIP)
	} else {
		criteria := analytics.BuildGroupCriteria(rows, req.IP)
		payload.Warnings = append(payload.Warnings, criteria.Warnings...)
		for _, w := range criteria.Warnings {
			s.logger.Warn("comparison criterion dropped", "warning", w)
		}
		compRows = analytics.FilterGroup(rows, req.IP, criteria)
		compName = "comparison group"
	}

	for _, policy := range broadcastPolicies() {
		base := analytics.EpisodeSeries(rows, req.IP, policy.Metric, nil)
		comp := analytics.MeanEpisodeSeries(compRows, policy.Metric, nil)

		payload.Series = append(payload.Series,
			episodeSeriesChart(string(policy.Metric)+" "+req.IP, base),
			episodeSeriesChart(string(policy.Metric)+" "+compName, comp),
			indexSeriesChart(string(policy.Metric)+" index", base, comp))
	}

	for _, policy := range domain.DefaultPolicies {
		basePerIP := analytics.PerIPAggregate(rows, policy, nil)
		baseVal := analytics.None
		if v, ok := basePerIP[req.IP]; ok {
			baseVal = analytics.Some(v)
		}
		compVal := analytics.Aggregate(compRows, policy, nil)
		payload.KPIs = append(payload.KPIs,
			indexKPI(string(policy.Metric)+" vs "+compName, analytics.IndexScalar(baseVal, compVal)))
	}
	return payload, nil
}

func (s *DashboardService) buildEpisodes(_ context.Context, req ViewRequest, rows []domain.Event) (domain.ViewPayload, error) {
	metric := metricOrDefault(req.Metric)
	ips := analytics.IPs(rows)

	perIP := make(map[string]map[float64]float64, len(ips))
	episodeSet := map[float64]bool{}
	for _, ip := range ips {
		series := analytics.EpisodeSeries(rows, ip, metric, nil)
		perIP[ip] = series
		for ep := range series {
			episodeSet[ep] = true
		}
	}
	episodes := make([]float64, 0, len(episodeSet))
	for ep := range episodeSet {
		episodes = append(episodes, ep)
	}
	sort.Float64s(episodes)

	grid := domain.Grid{Name: string(metric) + " by episode", RowKeys: ips}
	for _, ep := range episodes {
		grid.Columns = append(grid.Columns, episodeLabel(ep))
	}
	var payload domain.ViewPayload
	for _, ip := range ips {
		row := make([]domain.GridCell, 0, len(episodes))
		for _, ep := range episodes {
			v, ok := perIP[ip][ep]
			if ok {
				row = append(row, valueCell(analytics.Some(v), 2))
			} else {
				row = append(row, valueCell(analytics.None, 2))
			}
		}
		grid.Rows = append(grid.Rows, row)
		payload.Series = append(payload.Series, episodeSeriesChart(ip, perIP[ip]))
	}
	payload.Grids = append(payload.Grids, grid)
	return payload, nil
}

func (s *DashboardService) buildGrowthBroadcast(_ context.Context, req ViewRequest, rows []domain.Event) (domain.ViewPayload, error) {
	return s.buildGrowth(rows, broadcastPolicies(), metricOrDefault(req.Metric), req.Cutoff)
}

func (s *DashboardService) buildGrowthDigital(_ context.Context, req ViewRequest, rows []domain.Event) (domain.ViewPayload, error) {
	policies := digitalPolicies()
	sweepMetric := req.Metric
	if sweepMetric == "" || domain.PolicyFor(sweepMetric).Broadcast {
		sweepMetric = domain.MetricMentionCount
	}
	return s.buildGrowth(rows, policies, sweepMetric, req.Cutoff)
}

// buildGrowth renders the grade grid at the selected cutoff plus the
// grade-evolution sweep per IP.
func (s *DashboardService) buildGrowth(rows []domain.Event, policies []domain.MetricPolicy, sweepMetric domain.Metric, cutoff float64) (domain.ViewPayload, error) {
	ips := analytics.IPs(rows)
	grid := domain.Grid{Name: "grades", RowKeys: ips}

	perMetric := make([][]analytics.MetricGrade, 0, len(policies))
	for _, policy := range policies {
		grid.Columns = append(grid.Columns, string(policy.Metric))
		perMetric = append(perMetric, analytics.GradeMetric(rows, policy.Metric, nil, cutoff))
	}
	grid.Columns = append(grid.Columns, "overall")
	overall := analytics.GradeOverall(ips, perMetric...)

	for i := range ips {
		row := make([]domain.GridCell, 0, len(grid.Columns))
		for _, grades := range perMetric {
			row = append(row, gradeCell(grades[i].Label, grades[i].Percentile))
		}
		row = append(row, gradeCell(string(overall[i].Grade), overall[i].MeanPercentile))
		grid.Rows = append(grid.Rows, row)
	}

	payload := domain.ViewPayload{Grids: []domain.Grid{grid}}
	if domain.PolicyFor(sweepMetric).Broadcast {
		for _, ip := range ips {
			sweep := analytics.GradeSweep(rows, ip, sweepMetric, nil, s.cfg.Cutoffs)
			if len(sweep) == 0 {
				continue
			}
			series := domain.Series{Name: ip + " " + string(sweepMetric) + " grade"}
			for _, p := range sweep {
				series.Points = append(series.Points, domain.SeriesPoint{
					X:     fmt.Sprintf("≤%g", p.Cutoff),
					Y:     gradeOrdinal(p.Absolute),
					Valid: p.Absolute != analytics.GradeNone,
					Label: p.Label,
				})
			}
			payload.Series = append(payload.Series, series)
		}
	} else {
		// Digital metrics have no episode axis; the evolution series is
		// the weekly trend instead.
		for _, ip := range ips {
			points := analytics.WeekSeries(rows, ip, sweepMetric)
			if len(points) == 0 {
				continue
			}
			series := domain.Series{Name: ip + " " + string(sweepMetric) + " weekly"}
			for _, p := range points {
				series.Points = append(series.Points, domain.SeriesPoint{X: p.Key, Y: p.Value, Valid: true})
			}
			payload.Series = append(payload.Series, series)
		}
	}
	return payload, nil
}

func filterDemographic(rows []domain.Event, demo string) []domain.Event {
	out := make([]domain.Event, 0, len(rows))
	for _, r := range rows {
		if r.Demographic == demo {
			out = append(out, r)
		}
	}
	return out
}
