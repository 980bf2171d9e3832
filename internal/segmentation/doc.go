// Package segmentation turns masks produced by external segmentation models
// into regions with bounding boxes and simplified polygons.
//
// Two front ends are provided. RefineMask asks a prompt-driven model for
// candidate masks around a point or box and keeps the best one.
// SegmentInstances asks an instance model for every object it finds and
// emits one region per instance.
//
// Models are reached through the RefineModel and InstanceModel interfaces
// and owned by a Handle, which loads them at most once per process.
// RemoteModel implements both interfaces over HTTP.
package segmentation
