package example

// Fibonacci iterates the sequence up to a requested step. Step values above
// 50 are rejected before an iterator is built, so int64 never overflows.
type Fibonacci struct {
	number int
	step   int
	f      int64
	f1     int64
	f2     int64
}

func NewFibonacci(number int) *Fibonacci {
	return &Fibonacci{number: number}
}

func (f *Fibonacci) Next() bool {
	if f.step >= f.number {
		return false
	}
	f.step++
	if f.step < 2 {
		f.f = int64(f.step)
	} else {
		f.f2 = f.f1
		f.f1 = f.f
		f.f = f.f1 + f.f2
	}
	return true
}

// Result reports the current state of the iteration.
type Result struct {
	Value  int64 `json:"value"`
	Step   int   `json:"step"`
	Number int   `json:"number"`
}

func (f *Fibonacci) Result() Result {
	return Result{Value: f.f, Step: f.step, Number: f.number}
}

func (f *Fibonacci) Finish() Result {
	for f.Next() {
	}
	return f.Result()
}
