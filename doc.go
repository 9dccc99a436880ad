/*
Package digital allows to stream logic-level values to digital output
devices.

# Concept

A digital output session writes samples to one or more lines of a device
through a vendor driver. The session has three collaborators:

	Channels - which lines are used and how they are grouped;
	Mode - whether samples are written on demand or clocked;
	Samples - the values to write.

It implies the following constraints:

	Channels are resolved once, before any sample is written;
	Every sample is written with exactly one driver call;
	The driver task is always stopped and disposed when the session ends.

# Channels

Channels are plain values. Static channels known upfront and dynamic
channels received at runtime are combined by concatenation:

	static := digital.Channels{
	    {Lines: "Dev1/port0/line0"},
	    {Lines: "Dev1/port0/line1"},
	}
	all := digital.Concat(static, digital.Channel{Lines: "Dev1/port1"})

The order of the combined list defines channel indices in the task.

# Samples

Sample is a closed set of shapes:

	Scalar - a single logical value;
	Vector - one logical value per line;
	BytePort - one port value per channel;
	Matrix - rows of channels and columns of time-ordered samples.

Scalar, Vector and BytePort are written on demand. Matrix is written with a
sample clock and must have an integer depth.

# Execution

Sessions are executed by the run package. Task creation and teardown are
implemented in the task package, sample conversion and driver writes in
the dispatch package.
*/
package digital
