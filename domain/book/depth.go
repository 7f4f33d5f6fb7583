package book

// DefaultMaxLevel caps how deep LevelAt will report.
const DefaultMaxLevel = 100

// TopLevel is the index of the best level for LevelAt.
const TopLevel = 1

// DepthLevel aggregates the resting volume at one price on one side.
// Fields are read-only outside this package; Depth owns all mutation.
type DepthLevel struct {
	Price         int64
	OrderCount    int64
	TotalQty      int64
	LastChangeQty int64
}

func (l *DepthLevel) IsEmpty() bool { return l.TotalQty == 0 }

func (l *DepthLevel) addOrder(qty int64) {
	l.OrderCount++
	l.TotalQty += qty
	l.LastChangeQty = qty
}

func (l *DepthLevel) closeOrder(qty int64) {
	l.OrderCount--
	l.TotalQty -= qty
	l.LastChangeQty = -qty
}

func (l *DepthLevel) decrease(qty int64) {
	l.TotalQty -= qty
}

// Depth is the externally observable per-side aggregation of price level
// to open quantity. The book mutates it in lock-step with its side
// collection and never reads it back for matching decisions. Levels walk
/// in the side's priority order: market key first, then best price first.
type Depth struct {
	side     Side
	maxLevel int
	levels   *rbTree[*DepthLevel]
}

func NewDepth(side Side) *Depth {
	return NewDepthWithMaxLevel(side, DefaultMaxLevel)
}

func NewDepthWithMaxLevel(side Side, maxLevel int) *Depth {
	if maxLevel <= 0 {
		maxLevel = DefaultMaxLevel
	}
	less := askLess
	if side == Buy {
		less = bidLess
	}
	return &Depth{
		side:     side,
		maxLevel: maxLevel,
		levels:   newRBTree[*DepthLevel](less),
	}
}

// OnOrderPlaced adds qty at price, creating the level when absent.
func (d *Depth) OnOrderPlaced(price, qty int64) {
	lvl := d.levels.getOrCreate(price, func() *DepthLevel {
		return &DepthLevel{Price: price}
	})
	lvl.addOrder(qty)
}

// OnOrderCancelled subtracts the cancelled open qty, dropping the level
// when it reaches zero.
func (d *Depth) OnOrderCancelled(price, qty int64) {
	d.closeOrder(price, qty)
}

// OnOrderFullFilled subtracts the final executed qty, dropping the level
// when it reaches zero.
func (d *Depth) OnOrderFullFilled(price, qty int64) {
	d.closeOrder(price, qty)
}

// OnOrderPartialFilled subtracts an executed qty from a level that keeps
// resting volume.
func (d *Depth) OnOrderPartialFilled(price, qty int64) {
	lvl, ok := d.levels.get(price)
	if !ok {
		return
	}
	lvl.decrease(qty)
}

func (d *Depth) closeOrder(price, qty int64) {
	lvl, ok := d.levels.get(price)
	if !ok {
		return
	}
	lvl.closeOrder(qty)
	if lvl.IsEmpty() {
		d.levels.delete(price)
	}
}

func (d *Depth) IsEmpty() bool  { return d.levels.empty() }
func (d *Depth) Size() int      { return d.levels.len() }
func (d *Depth) Side() Side     { return d.side }
func (d *Depth) MaxLevel() int  { return d.maxLevel }

// FirstLevel returns the best level, nil when the side is empty.
func (d *Depth) FirstLevel() *DepthLevel {
	return d.LevelAt(TopLevel)
}

// LevelAt returns the n-th level in priority order, counting from
// TopLevel. Out-of-range n clamps to [TopLevel, MaxLevel]; nil when the
// book is shallower than n.
func (d *Depth) LevelAt(n int) *DepthLevel {
	if n < TopLevel {
		n = TopLevel
	} else if n > d.maxLevel {
		n = d.maxLevel
	}

	var found *DepthLevel
	i := 0
	d.levels.walk(func(_ int64, lvl *DepthLevel) bool {
		i++
		if i == n {
			found = lvl
			return false
		}
		return true
	})
	return found
}

// Levels visits levels in priority order until fn returns false.
func (d *Depth) Levels(fn func(*DepthLevel) bool) {
	d.levels.walk(func(_ int64, lvl *DepthLevel) bool {
		return fn(lvl)
	})
}
