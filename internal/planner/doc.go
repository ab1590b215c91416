// Package planner handles the planning phase of a ligation run.
//
// The planner turns operator inputs (stock concentrations and target
// concentrations) into a deterministic TransferPlan. It computes every
// component volume with C1V1 = C2V2, fills each tube to the final volume with
// water, and validates the result before anything touches the robot.
//
// Key responsibilities:
//   - Compute per-tube component volumes rounded to instrument resolution
//   - Enforce the fixed insert:vector concentration ratio
//   - Check every volume against the delivering instrument's range
//   - Order transfers: DNA first, batched per reagent; water, buffer, ligase last
package planner
