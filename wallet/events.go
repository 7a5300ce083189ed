package wallet

// OnBalanceChanged registers a callback fired after any operation that
// changes the proof store balance. The UI layer hangs refreshes off this.
func (w *Wallet) OnBalanceChanged(fn func()) {
	w.lmux.Lock()
	w.listeners = append(w.listeners, fn)
	w.lmux.Unlock()
}

func (w *Wallet) notifyBalanceChanged() {
	w.lmux.Lock()
	listeners := make([]func(), len(w.listeners))
	copy(listeners, w.listeners)
	w.lmux.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
