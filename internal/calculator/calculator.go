// Package calculator derives the named performance metrics from a raw page
// measurement. Calculate is a pure function: no I/O, no state, identical
// input always yields an identical mapping.
package calculator

import (
	"github.com/basbossink/page-metrics-probe/internal/models"
)

// Metric series names. The unit is part of each name's contract.
const (
	KeyNumberOfResources                            = "numberOfResources"
	KeyTransferSizeInBytes                          = "transferSizeInBytes"
	KeyEncodedBodySizeInBytes                       = "encodedBodySizeInBytes"
	KeyDecodedBodySizeInBytes                       = "decodedBodySizeInBytes"
	KeyTimeToFirstByteInMilliSeconds                = "timeToFirstByteInMilliSeconds"
	KeyTimeToStartRenderInMilliSeconds              = "timeToStartRenderInMilliSeconds"
	KeyTimeToDomCompleteInMilliSeconds              = "timeToDomCompleteInMilliSeconds"
	KeyResourceDownloadTimeInMilliSeconds           = "resourceDownloadTimeInMilliSeconds"
	KeyTotalTaskTimeInSeconds                       = "totalTaskTimeInSeconds"
	KeyDNSLookupTimeInMilliSeconds                  = "dnsLookupTimeInMilliSeconds"
	KeyConnectionSetupTimeInMilliSeconds            = "connectionSetupTimeInMilliSeconds"
	KeyRequestSendPlusResponseLatencyInMilliSeconds = "requestSendPlusResponseLatencyInMilliSeconds"
	KeyTCPInitiationOverheadInMilliSeconds          = "tcpInitiationOverheadInMilliSeconds"
	KeyBackendResponseTimeInMilliSeconds            = "backendResponseTimeInMilliSeconds"
)

// Keys lists every derived metric in derivation order. Publication and
// tests iterate this slice so runs are reproducible.
var Keys = []string{
	KeyNumberOfResources,
	KeyTransferSizeInBytes,
	KeyEncodedBodySizeInBytes,
	KeyDecodedBodySizeInBytes,
	KeyTimeToFirstByteInMilliSeconds,
	KeyTimeToStartRenderInMilliSeconds,
	KeyTimeToDomCompleteInMilliSeconds,
	KeyResourceDownloadTimeInMilliSeconds,
	KeyTotalTaskTimeInSeconds,
	KeyDNSLookupTimeInMilliSeconds,
	KeyConnectionSetupTimeInMilliSeconds,
	KeyRequestSendPlusResponseLatencyInMilliSeconds,
	KeyTCPInitiationOverheadInMilliSeconds,
	KeyBackendResponseTimeInMilliSeconds,
}

// extreme is the result of a min/max reduction over a possibly-empty
// sequence: ok is false when there was nothing to reduce.
type extreme struct {
	value float64
	ok    bool
}

// Calculate derives the full metric mapping from a raw measurement.
// The returned map always contains exactly the series in Keys. Sums over
// an empty resource list are 0. resourceDownloadTimeInMilliSeconds is 0
// when the page loaded no sub-resources (the min/max reductions have no
// input); this is the documented edge value, chosen over NaN because the
// collector plots every published value.
//
// Differences are passed through as computed, even when negative (cached
// resources can report zero timings); interpreting inconsistent timing
// data is left to the consumer of the series.
func Calculate(raw *models.RawMetrics) (map[string]float64, error) {
	nav, err := raw.NavigationEntry()
	if err != nil {
		return nil, err
	}
	resources := raw.ResourceEntries()

	var transferSize, encodedBodySize, decodedBodySize float64
	earliestRequestStart := extreme{}
	latestResponseEnd := extreme{}
	for _, res := range resources {
		transferSize += res.TransferSize
		encodedBodySize += res.EncodedBodySize
		decodedBodySize += res.DecodedBodySize
		if !earliestRequestStart.ok || res.RequestStart < earliestRequestStart.value {
			earliestRequestStart = extreme{value: res.RequestStart, ok: true}
		}
		if !latestResponseEnd.ok || res.ResponseEnd > latestResponseEnd.value {
			latestResponseEnd = extreme{value: res.ResponseEnd, ok: true}
		}
	}

	resourceDownloadTime := 0.0
	if earliestRequestStart.ok && latestResponseEnd.ok {
		resourceDownloadTime = latestResponseEnd.value - earliestRequestStart.value
	}

	return map[string]float64{
		KeyNumberOfResources:                            raw.Page.Documents,
		KeyTransferSizeInBytes:                          transferSize,
		KeyEncodedBodySizeInBytes:                       encodedBodySize,
		KeyDecodedBodySizeInBytes:                       decodedBodySize,
		KeyTimeToFirstByteInMilliSeconds:                nav.ResponseStart - nav.StartTime,
		KeyTimeToStartRenderInMilliSeconds:              nav.DOMContentLoadedEventStart - nav.StartTime,
		KeyTimeToDomCompleteInMilliSeconds:              nav.DOMComplete - nav.StartTime,
		KeyResourceDownloadTimeInMilliSeconds:           resourceDownloadTime,
		KeyTotalTaskTimeInSeconds:                       raw.Page.TaskDuration,
		KeyDNSLookupTimeInMilliSeconds:                  nav.DomainLookupEnd - nav.DomainLookupStart,
		KeyConnectionSetupTimeInMilliSeconds:            nav.ConnectEnd - nav.ConnectStart,
		KeyRequestSendPlusResponseLatencyInMilliSeconds: nav.ResponseStart - nav.RequestStart,
		KeyTCPInitiationOverheadInMilliSeconds:          nav.RequestStart - nav.StartTime,
		KeyBackendResponseTimeInMilliSeconds:            nav.ResponseEnd - nav.ResponseStart,
	}, nil
}
