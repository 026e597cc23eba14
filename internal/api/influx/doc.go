// Package influx writes the room summary as an InfluxDB point.
package influx
