package prediction

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"sprawlstats/adapters/stats/descriptive"
	"sprawlstats/domain/core"
)

// Training constants for the two-layer network
const (
	LearningRate = 0.01
	MaxBatchSize = 32
	minHidden    = 5
	maxHidden    = 20
)

// NeuralConfig controls network training
type NeuralConfig struct {
	Epochs int
	// Rand drives weight init and shuffling; nil uses a randomly seeded source
	Rand *rand.Rand
}

// NeuralNet is a single ReLU hidden layer with a linear output. Inputs and
// target are z-scored with training statistics.
type NeuralNet struct {
	Hidden    int
	Epochs    int
	FinalLoss float64

	w1 [][]float64 // hidden x inputs
	b1 []float64
	w2 []float64
	b2 float64

	xMean, xStd []float64
	yMean, yStd float64
}

// HiddenSize is clamp(2·features, 5, 20)
func HiddenSize(features int) int {
	return max(minHidden, min(maxHidden, 2*features))
}

// FitNeural trains a network with mini-batch gradient descent
func FitNeural(x [][]float64, y []float64, cfg NeuralConfig) (*NeuralNet, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, core.NewInsufficientDataError(1, len(x), "training samples")
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 100
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	inputs := len(x[0])
	net := &NeuralNet{Hidden: HiddenSize(inputs), Epochs: cfg.Epochs}
	xs, ys := net.fitScaling(x, y)
	net.initWeights(inputs, rng)

	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	batch := min(MaxBatchSize, len(xs))
	g := newGradients(net.Hidden, inputs)
	hidden := make([]float64, net.Hidden)
	pre := make([]float64, net.Hidden)

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		var epochLoss float64

		for start := 0; start < len(order); start += batch {
			end := min(start+batch, len(order))
			g.reset()
			for _, idx := range order[start:end] {
				out := net.forward(xs[idx], pre, hidden)
				diff := out - ys[idx]
				epochLoss += diff * diff
				net.backward(xs[idx], pre, hidden, diff, g)
			}
			net.apply(g, float64(end-start))
		}
		net.FinalLoss = epochLoss / float64(len(order))
	}
	return net, nil
}

func (n *NeuralNet) fitScaling(x [][]float64, y []float64) ([][]float64, []float64) {
	inputs := len(x[0])
	n.xMean = make([]float64, inputs)
	n.xStd = make([]float64, inputs)
	xs := make([][]float64, len(x))
	for i := range xs {
		xs[i] = make([]float64, inputs)
	}

	column := make([]float64, len(x))
	for j := 0; j < inputs; j++ {
		for i := range x {
			column[i] = x[i][j]
		}
		z, mean, std := descriptive.Standardize(column)
		n.xMean[j], n.xStd[j] = mean, nonZero(std)
		for i := range xs {
			xs[i][j] = z[i]
		}
	}

	ys, mean, std := descriptive.Standardize(y)
	n.yMean, n.yStd = mean, nonZero(std)
	return xs, ys
}

func (n *NeuralNet) initWeights(inputs int, rng *rand.Rand) {
	in := distuv.Normal{Mu: 0, Sigma: math.Sqrt(2 / float64(inputs)), Src: rng}
	out := distuv.Normal{Mu: 0, Sigma: math.Sqrt(2 / float64(n.Hidden)), Src: rng}

	n.w1 = make([][]float64, n.Hidden)
	n.b1 = make([]float64, n.Hidden)
	n.w2 = make([]float64, n.Hidden)
	for j := range n.w1 {
		n.w1[j] = make([]float64, inputs)
		for i := range n.w1[j] {
			n.w1[j][i] = in.Rand()
		}
		n.w2[j] = out.Rand()
	}
}

// forward fills pre-activations and ReLU outputs and returns the output unit
func (n *NeuralNet) forward(x, pre, hidden []float64) float64 {
	out := n.b2
	for j, w := range n.w1 {
		s := n.b1[j]
		for i, v := range x {
			s += w[i] * v
		}
		pre[j] = s
		hidden[j] = math.Max(0, s)
		out += n.w2[j] * hidden[j]
	}
	return out
}

// backward accumulates the gradient of ½·diff² for one sample
func (n *NeuralNet) backward(x, pre, hidden []float64, diff float64, g *gradients) {
	g.b2 += diff
	for j := range n.w2 {
		g.w2[j] += diff * hidden[j]
		if pre[j] <= 0 {
			continue
		}
		dh := diff * n.w2[j]
		g.b1[j] += dh
		for i, v := range x {
			g.w1[j][i] += dh * v
		}
	}
}

func (n *NeuralNet) apply(g *gradients, size float64) {
	step := LearningRate / size
	n.b2 -= step * g.b2
	for j := range n.w2 {
		n.w2[j] -= step * g.w2[j]
		n.b1[j] -= step * g.b1[j]
		for i := range n.w1[j] {
			n.w1[j][i] -= step * g.w1[j][i]
		}
	}
}

// Predict implements Model
func (n *NeuralNet) Predict(features []float64) float64 {
	x := make([]float64, len(n.xMean))
	for i := range x {
		if i < len(features) {
			x[i] = (features[i] - n.xMean[i]) / n.xStd[i]
		}
	}
	pre := make([]float64, n.Hidden)
	hidden := make([]float64, n.Hidden)
	return n.forward(x, pre, hidden)*n.yStd + n.yMean
}

// Importance sums |w1|·|w2| over hidden units and normalizes to 1
func (n *NeuralNet) Importance() []float64 {
	out := make([]float64, len(n.xMean))
	var total float64
	for j, w := range n.w1 {
		for i := range out {
			v := math.Abs(w[i]) * math.Abs(n.w2[j])
			out[i] += v
			total += v
		}
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}

type gradients struct {
	w1 [][]float64
	b1 []float64
	w2 []float64
	b2 float64
}

func newGradients(hidden, inputs int) *gradients {
	g := &gradients{
		w1: make([][]float64, hidden),
		b1: make([]float64, hidden),
		w2: make([]float64, hidden),
	}
	for j := range g.w1 {
		g.w1[j] = make([]float64, inputs)
	}
	return g
}

func (g *gradients) reset() {
	g.b2 = 0
	for j := range g.w1 {
		g.b1[j] = 0
		g.w2[j] = 0
		for i := range g.w1[j] {
			g.w1[j][i] = 0
		}
	}
}

func nonZero(std float64) float64 {
	if std == 0 {
		return 1
	}
	return std
}
