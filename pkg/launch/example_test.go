package launch_test

import (
	"fmt"

	"github.com/matzehuels/launchgraph/pkg/graph"
	"github.com/matzehuels/launchgraph/pkg/launch"
	"github.com/matzehuels/launchgraph/pkg/props"
	"github.com/matzehuels/launchgraph/pkg/topology"
)

func ExampleSerialize() {
	b := topology.NewBuilder(nil)
	p := b.MustAdd(nil, topology.Spec{Name: "pipeline0", Factory: "pipeline"})
	src := b.MustAdd(p, topology.Spec{
		Name: "src", Factory: "videotestsrc", Outputs: []string{"src"},
		Properties: []topology.Property{{Name: "num-buffers", Writable: true, Value: int64(100), Default: int64(-1)}},
	})
	sink := b.MustAdd(p, topology.Spec{Name: "sink", Factory: "autovideosink", Inputs: []string{"sink"}})
	_ = b.Link(src.Output("src"), sink.Input("sink"))

	g, _ := graph.Build(b.Roots()...)
	fmt.Println(launch.Serialize(g, props.Extractor{}, launch.DefaultOptions()))
	// Output:
	// gst-launch-1.0 -ev \
	// videotestsrc \
	//     num-buffers=100 \
	// ! autovideosink
}
