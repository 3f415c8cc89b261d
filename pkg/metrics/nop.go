package metrics

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordTick(float64)                     {}
func (Nop) RecordUpdate(string, bool)              {}
func (Nop) RecordScreen(string, int)               {}
func (Nop) RecordBacklog(string, bool)             {}
func (Nop) RecordFilterFault(string)               {}
func (Nop) RecordGroupRefresh(bool)                {}
func (Nop) RecordNotification(string, string)      {}
func (Nop) RecordSourceLoad(string, bool, float64) {}
