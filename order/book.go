package order

import (
	"encoding/json"
	"sort"
	"sync"
)

// Book 在途报单簿
//
// 三重索引：报单号主索引、合约索引（撮合按合约取单）、确认日索引
// （基金跨日确认），另维护赎回资金到账日队列。增删必须保持索引
// 原子一致。
type Book struct {
	mu sync.RWMutex

	orders      map[string]*Order            // 报单号 → 报单
	symbolIndex map[string]map[string]bool   // 合约 → 报单号集合
	crossIndex  map[string]map[string]bool   // 确认日 → 报单号集合（基金）
	arriveIndex map[string][]string          // 到账日 → 报单号列表（基金赎回）
}

// NewBook 创建在途报单簿
func NewBook() *Book {
	return &Book{
		orders:      make(map[string]*Order),
		symbolIndex: make(map[string]map[string]bool),
		crossIndex:  make(map[string]map[string]bool),
		arriveIndex: make(map[string][]string),
	}
}

// Add 登记报单
func (b *Book) Add(o *Order) {
	if o == nil || o.OrderID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.orders[o.OrderID] = o

	if b.symbolIndex[o.Symbol] == nil {
		b.symbolIndex[o.Symbol] = make(map[string]bool)
	}
	b.symbolIndex[o.Symbol][o.OrderID] = true

	if o.CrossDate != "" {
		if b.crossIndex[o.CrossDate] == nil {
			b.crossIndex[o.CrossDate] = make(map[string]bool)
		}
		b.crossIndex[o.CrossDate][o.OrderID] = true
	}
	if o.ArriveDate != "" {
		b.arriveIndex[o.ArriveDate] = append(b.arriveIndex[o.ArriveDate], o.OrderID)
	}
}

// Remove 移除报单，同步清理全部索引
func (b *Book) Remove(orderID string) *Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(orderID)
}

func (b *Book) removeLocked(orderID string) *Order {
	o, ok := b.orders[orderID]
	if !ok {
		return nil
	}
	delete(b.orders, orderID)

	if set := b.symbolIndex[o.Symbol]; set != nil {
		delete(set, orderID)
		if len(set) == 0 {
			delete(b.symbolIndex, o.Symbol)
		}
	}
	if o.CrossDate != "" {
		if set := b.crossIndex[o.CrossDate]; set != nil {
			delete(set, orderID)
			if len(set) == 0 {
				delete(b.crossIndex, o.CrossDate)
			}
		}
	}
	if o.ArriveDate != "" {
		ids := b.arriveIndex[o.ArriveDate]
		for i, id := range ids {
			if id == orderID {
				b.arriveIndex[o.ArriveDate] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(b.arriveIndex[o.ArriveDate]) == 0 {
			delete(b.arriveIndex, o.ArriveDate)
		}
	}
	return o
}

// Get 按报单号取报单
func (b *Book) Get(orderID string) *Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.orders[orderID]
}

// BySymbol 取某合约的全部在途报单（按报单号排序，保证撮合次序确定）
func (b *Book) BySymbol(symbol string) []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.collect(b.symbolIndex[symbol])
}

// ByCrossDate 取某确认日的全部在途基金报单
func (b *Book) ByCrossDate(date string) []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.collect(b.crossIndex[date])
}

// ArriveOrders 取某到账日的赎回报单
func (b *Book) ArriveOrders(date string) []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Order, 0, len(b.arriveIndex[date]))
	for _, id := range b.arriveIndex[date] {
		if o, ok := b.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// All 取全部在途报单
func (b *Book) All() []*Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Len 在途报单数量
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

func (b *Book) collect(set map[string]bool) []*Order {
	out := make([]*Order, 0, len(set))
	for id := range set {
		if o, ok := b.orders[id]; ok {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Snapshot 序列化在途报单（重启恢复用）
func (b *Book) Snapshot() ([]byte, error) {
	return json.Marshal(b.All())
}

// Restore 从快照恢复在途报单
func (b *Book) Restore(data []byte) error {
	var orders []*Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return err
	}
	for _, o := range orders {
		b.Add(o)
	}
	return nil
}
