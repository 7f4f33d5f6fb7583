package book

type color uint8

const (
	red   color = 0
	black color = 1
)

// lessFunc orders price keys. Both sides put the synthetic market key 0
// first; asks then ascend, bids descend.
type lessFunc func(a, b int64) bool

func askLess(a, b int64) bool { return a < b }

func bidLess(a, b int64) bool {
	if a == 0 {
		return b != 0
	}
	if b == 0 {
		return false
	}
	return a > b
}

type rbNode[V any] struct {
	key    int64
	value  V
	color  color
	left   *rbNode[V]
	right  *rbNode[V]
	parent *rbNode[V]
}

// rbTree is a red-black tree keyed by price under a side comparator.
// One generic type serves the two side collections and the two depth
// aggregates.
type rbTree[V any] struct {
	root *rbNode[V]
	nil  *rbNode[V] // sentinel (black)
	less lessFunc
	size int
}

func newRBTree[V any](less lessFunc) *rbTree[V] {
	sentinel := &rbNode[V]{color: black}
	return &rbTree[V]{
		root: sentinel,
		nil:  sentinel,
		less: less,
	}
}

func (t *rbTree[V]) len() int    { return t.size }
func (t *rbTree[V]) empty() bool { return t.size == 0 }

func (t *rbTree[V]) get(key int64) (V, bool) {
	n := t.search(key)
	if n == t.nil {
		var zero V
		return zero, false
	}
	return n.value, true
}

// getOrCreate returns the value at key, building it with ctor on first use.
func (t *rbTree[V]) getOrCreate(key int64, ctor func() V) V {
	y := t.nil
	x := t.root
	for x != t.nil {
		y = x
		if t.less(key, x.key) {
			x = x.left
		} else if t.less(x.key, key) {
			x = x.right
		} else {
			return x.value
		}
	}

	z := &rbNode[V]{
		key:    key,
		value:  ctor(),
		color:  red,
		left:   t.nil,
		right:  t.nil,
		parent: y,
	}
	if y == t.nil {
		t.root = z
	} else if t.less(z.key, y.key) {
		y.left = z
	} else {
		y.right = z
	}
	t.insertFixup(z)
	t.size++
	return z.value
}

func (t *rbTree[V]) delete(key int64) bool {
	z := t.search(key)
	if z == t.nil {
		return false
	}
	t.deleteNode(z)
	t.size--
	return true
}

// first returns the node that sorts before all others, nil when empty.
func (t *rbTree[V]) first() *rbNode[V] {
	n := t.min(t.root)
	if n == t.nil {
		return nil
	}
	return n
}

// next returns the in-order successor of n, nil at the end.
func (t *rbTree[V]) next(n *rbNode[V]) *rbNode[V] {
	if n.right != t.nil {
		m := t.min(n.right)
		if m == t.nil {
			return nil
		}
		return m
	}
	p := n.parent
	for p != t.nil && n == p.right {
		n = p
		p = p.parent
	}
	if p == t.nil {
		return nil
	}
	return p
}

// walk visits values in comparator order until fn returns false.
func (t *rbTree[V]) walk(fn func(key int64, v V) bool) {
	for n := t.first(); n != nil; n = t.next(n) {
		if !fn(n.key, n.value) {
			return
		}
	}
}

func (t *rbTree[V]) clear() {
	t.root = t.nil
	t.size = 0
}

// ---- internals ----

func (t *rbTree[V]) search(key int64) *rbNode[V] {
	n := t.root
	for n != t.nil {
		if t.less(key, n.key) {
			n = n.left
		} else if t.less(n.key, key) {
			n = n.right
		} else {
			return n
		}
	}
	return t.nil
}

func (t *rbTree[V]) min(n *rbNode[V]) *rbNode[V] {
	for n != t.nil && n.left != t.nil {
		n = n.left
	}
	return n
}

func (t *rbTree[V]) leftRotate(x *rbNode[V]) {
	y := x.right
	x.right = y.left
	if y.left != t.nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *rbTree[V]) rightRotate(x *rbNode[V]) {
	y := x.left
	x.left = y.right
	if y.right != t.nil {
		y.right.parent = x
	}
	y.parent = x.parent
	if x.parent == t.nil {
		t.root = y
	} else if x == x.parent.right {
		x.parent.right = y
	} else {
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

func (t *rbTree[V]) insertFixup(z *rbNode[V]) {
	for z.parent.color == red {
		if z.parent == z.parent.parent.left {
			y := z.parent.parent.right
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := z.parent.parent.left
			if y.color == red {
				z.parent.color = black
				y.color = black
				z.parent.parent.color = red
				z = z.parent.parent
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

func (t *rbTree[V]) transplant(u, v *rbNode[V]) {
	if u.parent == t.nil {
		t.root = v
	} else if u == u.parent.left {
		u.parent.left = v
	} else {
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *rbTree[V]) deleteNode(z *rbNode[V]) {
	y := z
	yOrigColor := y.color
	var x *rbNode[V]

	if z.left == t.nil {
		x = z.right
		t.transplant(z, z.right)
	} else if z.right == t.nil {
		x = z.left
		t.transplant(z, z.left)
	} else {
		y = t.min(z.right)
		yOrigColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if yOrigColor == black {
		t.deleteFixup(x)
	}
}

func (t *rbTree[V]) deleteFixup(x *rbNode[V]) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.leftRotate(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.right.color == black {
					w.left.color = black
					w.color = red
					t.rightRotate(w)
					w = x.parent.right
				}
				w.color = x.parent.color
				x.parent.color = black
				w.right.color = black
				t.leftRotate(x.parent)
				x = t.root
			}
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rightRotate(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
			} else {
				if w.left.color == black {
					w.right.color = black
					w.color = red
					t.leftRotate(x.parent)
					w = x.parent.left
				}
				w.color = x.parent.color
				x.parent.color = black
				w.left.color = black
				t.rightRotate(x.parent)
				x = t.root
			}
		}
	}
	x.color = black
}
