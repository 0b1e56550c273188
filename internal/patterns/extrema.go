package patterns

// level is one clustered price level with its share of the extrema found.
type level struct {
	price      float64
	members    int
	confidence float64
}

// findExtrema returns indices of local maxima (or minima when invert is
// true). A point qualifies when it clears both immediate neighbors by more
// than prominence; extrema closer than separation keep only the stronger one.
func findExtrema(prices []float64, prominence float64, separation int, invert bool) []int {
	sign := 1.0
	if invert {
		sign = -1.0
	}
	var out []int
	for i := 1; i < len(prices)-1; i++ {
		v := sign * prices[i]
		if v-sign*prices[i-1] <= prominence || v-sign*prices[i+1] <= prominence {
			continue
		}
		if len(out) > 0 && i-out[len(out)-1] < separation {
			// too close to the previous extremum; keep the stronger
			if v > sign*prices[out[len(out)-1]] {
				out[len(out)-1] = i
			}
			continue
		}
		out = append(out, i)
	}
	return out
}

func indexPrices(prices []float64, idx []int) []float64 {
	out := make([]float64, 0, len(idx))
	for _, i := range idx {
		out = append(out, prices[i])
	}
	return out
}

// clusterLevels groups extremum prices lying within tolerance of a running
// cluster mean. A cluster qualifies as a level when its member share of all
// extrema exceeds memberFrac; confidence is that share.
func clusterLevels(extrema []float64, tolerance, memberFrac float64) []level {
	if len(extrema) == 0 {
		return nil
	}

	type cluster struct {
		price float64
		count int
	}
	var clusters []*cluster
	for _, p := range extrema {
		placed := false
		for _, c := range clusters {
			if abs(p-c.price) <= tolerance {
				c.price = (c.price + p) / 2
				c.count++
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &cluster{price: p, count: 1})
		}
	}

	var out []level
	total := float64(len(extrema))
	for _, c := range clusters {
		conf := float64(c.count) / total
		if conf > memberFrac {
			out = append(out, level{price: c.price, members: c.count, confidence: conf})
		}
	}
	return out
}
