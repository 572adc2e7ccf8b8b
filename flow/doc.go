// Package flow runs pipelines of steps that exchange tri-state Results.
//
// A Definition is an ordered list of items. Each item is a step calling a
// Service, a named method or an inline function, or a BranchChain choosing
// between nested items. Items run in order; the first failure or error
// Result stops the pipeline and becomes its Result. Successful steps bind
// declared outputs into the attributes of the running Instance, where later
// input bindings read them.
//
//	checkout := flow.MustDefine("checkout",
//		flow.Steps(
//			flow.Step(reserveStock, flow.InAttr("sku"), flow.Out("reservation_id")),
//			flow.If(flow.Step(isPremium, flow.InAttr("customer")),
//				flow.Step(applyDiscount, flow.InAttr("reservation_id")),
//			).Else(
//				flow.Step(chargeCard, flow.InAttr("reservation_id")),
//			),
//		),
//		flow.After(flow.TargetStep, func(ctx context.Context, ev flow.HookEvent) {
//			audit.Record(ev.Step.Name, ev.Result)
//		}),
//	)
//
//	res, err := checkout.Call(ctx, flow.Args{"sku": "A-1", "customer": "c-9"})
//
// Collection bindings are not items of their own. A Func step whose body
// returns inst.Collection(src)...Result(ctx) puts one in the pipeline, and
// the combinator's Result then short-circuits like any step's.
//
// Business outcomes are Results. Go errors are reserved for unhandled
// exceptions and protocol violations such as a missing output key; with
// WithFaultTolerance the exceptions become error Results, while protocol
// violations still propagate as Go errors.
//
// Definitions can also be written in YAML and built against a Registry of
// services and methods with FileLoader and Build.
package flow
