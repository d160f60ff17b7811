package models

type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

type AgentType string

const (
	AgentCore       AgentType = "core"
	AgentSpecialist AgentType = "specialist"
	AgentSubagent   AgentType = "subagent"
)

// AgentOutput — мнение одного агента. Confidence обязан быть в [0,100]:
// нарушение — дефект агента, агрегатор такое не глотает молча.
type AgentOutput struct {
	Agent      string
	Bias       Bias
	Confidence float64
	Reasons    []string
	Block      bool
	Type       AgentType
	Metadata   map[string]string
}

type DecisionOutcome string

const (
	DecisionApprove DecisionOutcome = "approve"
	DecisionReject  DecisionOutcome = "reject"
)

// MetaDecision — агрегат всех мнений за один проход. Считается один раз,
// задним числом не правится.
type MetaDecision struct {
	FinalBias          Bias
	FinalConfidence    float64 // 0 при любом вето
	ContributingAgents []string
	ConsensusStrength  float64
	Decision           DecisionOutcome
	Vetoed             bool
	VetoedBy           []string
	Disagreement       bool // низкий консенсус при конфликтующих bias
}
