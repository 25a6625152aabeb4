package catalog

// BoostPool builds a practice pool from the weakest concepts, taking questions
// round-robin across slugs in the given order until size is reached. A
// non-positive size takes every matching question.
func BoostPool(c *Catalog, weakSlugs []string, size int) []Question {
	groups := make([][]Question, 0, len(weakSlugs))
	total := 0
	seen := make(map[string]bool, len(weakSlugs))
	for _, slug := range weakSlugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		qs := c.byConcept[slug]
		if len(qs) == 0 {
			continue
		}
		groups = append(groups, qs)
		total += len(qs)
	}
	if size <= 0 || size > total {
		size = total
	}

	pool := make([]Question, 0, size)
	for round := 0; len(pool) < size; round++ {
		for _, g := range groups {
			if round < len(g) && len(pool) < size {
				pool = append(pool, g[round])
			}
		}
	}
	return pool
}
