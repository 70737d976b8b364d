package scroll

import "sync"

// VisibilityObserver は番兵要素の可視率の変化を通知する。
// Observeは登録直後に現在の可視率で1回コールバックを呼ぶ。
type VisibilityObserver interface {
	Observe(threshold float64, callback func(ratio float64)) (disconnect func())
}

// ManualObserver は可視率を明示的に設定するVisibilityObserver。
// CLIやテストでスクロール位置の代わりに使う。
type ManualObserver struct {
	mu       sync.Mutex
	ratio    float64
	callback func(float64)
	id       uint64
}

// NewManualObserver は可視率0のManualObserverを生成する。
func NewManualObserver() *ManualObserver {
	return &ManualObserver{}
}

// Observe はVisibilityObserverを実装する。同時に監視できるのは1つだけ。
func (o *ManualObserver) Observe(threshold float64, callback func(ratio float64)) func() {
	o.mu.Lock()
	o.id++
	id := o.id
	o.callback = callback
	ratio := o.ratio
	o.mu.Unlock()

	callback(ratio)

	return func() {
		o.mu.Lock()
		if o.id == id {
			o.callback = nil
		}
		o.mu.Unlock()
	}
}

// SetRatio は可視率を更新し、監視中であればコールバックを呼ぶ。
func (o *ManualObserver) SetRatio(ratio float64) {
	o.mu.Lock()
	o.ratio = ratio
	cb := o.callback
	o.mu.Unlock()

	if cb != nil {
		cb(ratio)
	}
}

// Active は監視中であればtrueを返す。
func (o *ManualObserver) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.callback != nil
}
