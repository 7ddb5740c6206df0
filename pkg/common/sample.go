package common

// SampleTriples is a small built-in graph about the Industrial Revolution.
// It is used to render a graph without calling an oracle.
func SampleTriples() []Triple {
	return []Triple{
		{Subject: "industrial revolution", Predicate: "began in", Object: "great britain"},
		{Subject: "industrial revolution", Predicate: "transformed", Object: "economic systems"},
		{Subject: "industrial revolution", Predicate: "changed", Object: "social structures"},
		{Subject: "james watt", Predicate: "improved", Object: "steam engine"},
		{Subject: "steam engine", Predicate: "powered", Object: "factories"},
		{Subject: "steam engine", Predicate: "enabled", Object: "railways"},
		{Subject: "factories", Predicate: "employed", Object: "workers"},
		{Subject: "factories", Predicate: "produced", Object: "textiles"},
		{Subject: "textiles", Predicate: "exported from", Object: "great britain"},
		{Subject: "railways", Predicate: "connected", Object: "cities"},
		{Subject: "workers", Predicate: "migrated to", Object: "cities"},
		{Subject: "cities", Predicate: "experienced", Object: "urbanization"},
		{Subject: "urbanization", Predicate: "created", Object: "social structures"},
		{Subject: "coal", Predicate: "fueled", Object: "steam engine"},
		{Subject: "coal mining", Predicate: "supplied", Object: "coal"},
		{Subject: "coal mining", Predicate: "employed", Object: "child labor"},
		{Subject: "child labor", Predicate: "prompted", Object: "factory acts"},
		{Subject: "factory acts", Predicate: "regulated", Object: "factories"},
		{Subject: "adam smith", Predicate: "wrote", Object: "wealth of nations"},
		{Subject: "wealth of nations", Predicate: "influenced", Object: "economic systems"},
		{Subject: "economic systems", Predicate: "shifted toward", Object: "capitalism"},
		{Subject: "capitalism", Predicate: "criticized by", Object: "karl marx"},
		{Subject: "karl marx", Predicate: "wrote", Object: "das kapital"},
		{Subject: "spinning jenny", Predicate: "invented by", Object: "james hargreaves"},
		{Subject: "spinning jenny", Predicate: "increased", Object: "textiles", Inferred: true},
	}
}
