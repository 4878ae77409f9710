package graph_test

import (
	"fmt"
	"os"

	"github.com/matzehuels/ruleflow/pkg/graph"
	"github.com/matzehuels/ruleflow/pkg/trace"
)

func ExampleWriteGraph() {
	st := trace.Process("*** Fire: Start\n*** Fire: Step_one\n*** Fire: Start\n")

	if err := graph.WriteGraph(st, os.Stdout); err != nil {
		fmt.Println("Error:", err)
	}
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "Start",
	//       "tier": 1
	//     },
	//     {
	//       "id": "Step\none",
	//       "tier": 2,
	//       "name": "Step one"
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "from": "Start",
	//       "to": "Step\none"
	//     },
	//     {
	//       "from": "Step\none",
	//       "to": "Start"
	//     }
	//   ],
	//   "last_rule": "Start"
	// }
}

func ExampleToState() {
	st, err := graph.ToState(graph.Graph{
		Nodes: []graph.Node{{ID: "A", Tier: 1}, {ID: "B", Tier: 2}},
		Edges: []graph.Edge{{From: "A", To: "B"}},
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(st.Summary())
	// Output: Rule Nodes: 2 | Rule Edges: 1
}
