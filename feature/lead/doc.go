// Package lead synchronizes lead records to an external CRM over HTTP,
// asynchronously and in bounded batches.
//
// The pipeline: the Store captures create/update events at the point of
// mutation; FilterChanges selects the identifiers whose tracked fields
// actually changed and suppresses write-back loops via the per-cycle
// recursion guard; the Orchestrator submits one scheduled run; the
// Processor drains the queue chunk by chunk, calling the external system
// per record, writing successful references back, and routing every failure
// to the fault-tolerant recorder. Only a failure to reschedule remaining
// work terminates a run.
package lead
